package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/models"
)

const (
	signupPath      = "/auth/signUp"
	oauthSignupPath = "/auth/signUp?oauth=true"
)

// SignupPage drives the account creation wizard.
type SignupPage struct {
	page playwright.Page
	opts options

	accountTypeRadios map[models.AccountType]playwright.Locator
	primaryRoleRadios map[string]playwright.Locator
	industryOptions   map[string]playwright.Locator

	firstNameInput        playwright.Locator
	lastNameInput         playwright.Locator
	emailInput            playwright.Locator
	verificationCodeInput playwright.Locator
	passwordInput         playwright.Locator
	confirmPasswordInput  playwright.Locator

	nextButton           playwright.Locator
	verifyButton         playwright.Locator
	completeSignupButton playwright.Locator

	InvalidEmailMessage     playwright.Locator
	PasswordMismatchMessage playwright.Locator
}

// NewSignupPage builds the signup locator bundle for page.
func NewSignupPage(page playwright.Page, opts ...Option) *SignupPage {
	return &SignupPage{
		page: page,
		opts: buildOptions(opts),
		accountTypeRadios: map[models.AccountType]playwright.Locator{
			models.AccountEmployer:   page.GetByLabel(ci("employer")),
			models.AccountFreelancer: page.GetByLabel(ci("freelancer")),
		},
		primaryRoleRadios: map[string]playwright.Locator{
			"businessowner": page.GetByLabel(ci("business owner")),
			"designer":      page.GetByLabel(ci("designer")),
			"developer":     page.GetByLabel(ci("developer")),
		},
		industryOptions: map[string]playwright.Locator{
			"healthcare": page.GetByText(ci("healthcare")),
			"technology": page.GetByText(ci("technology")),
			"software":   page.GetByText(ci("software")),
		},
		firstNameInput:          page.GetByLabel(ci("first name")),
		lastNameInput:           page.GetByLabel(ci("last name")),
		emailInput:              page.GetByLabel(ci("email")),
		verificationCodeInput:   page.GetByLabel(ci("verification code")),
		passwordInput:           page.GetByLabel(ci("^password")),
		confirmPasswordInput:    page.GetByLabel(ci("confirm password")),
		nextButton:              button(page, "next"),
		verifyButton:            button(page, "verify"),
		completeSignupButton:    button(page, "complete signup"),
		InvalidEmailMessage:     page.GetByText(ci("invalid email")),
		PasswordMismatchMessage: page.GetByText(ci("passwords do not match")),
	}
}

func button(page playwright.Page, name string) playwright.Locator {
	return page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: ci(name)})
}

// Page returns the tab this page object is bound to.
func (s *SignupPage) Page() playwright.Page {
	return s.page
}

// Goto opens the direct signup entry screen.
func (s *SignupPage) Goto() error {
	if _, err := s.page.Goto(signupPath); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", signupPath, err)
	}
	return nil
}

// GotoOAuthSignup opens the signup screen in identity-provider mode.
func (s *SignupPage) GotoOAuthSignup() error {
	if _, err := s.page.Goto(oauthSignupPath); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", oauthSignupPath, err)
	}
	return nil
}

// SelectAccountType clicks the radio for accountType.
func (s *SignupPage) SelectAccountType(accountType models.AccountType) error {
	radio, ok := s.accountTypeRadios[accountType]
	if !ok {
		return fmt.Errorf("%w: account type %q", ErrUnknownOption, accountType)
	}
	if err := radio.Click(); err != nil {
		return fmt.Errorf("failed to select account type %q: %w", accountType, err)
	}
	return nil
}

// SelectPrimaryRole clicks the role radio for key, a value produced by
// models.RoleKey.
func (s *SignupPage) SelectPrimaryRole(key string) error {
	radio, ok := s.primaryRoleRadios[key]
	if !ok {
		return fmt.Errorf("%w: primary role %q", ErrUnknownOption, key)
	}
	if err := radio.Click(); err != nil {
		return fmt.Errorf("failed to select primary role %q: %w", key, err)
	}
	return nil
}

// SelectIndustries clicks each industry in order. Labels are matched
// case-insensitively. All keys are checked before the first click.
func (s *SignupPage) SelectIndustries(industries []string) error {
	selected := make([]playwright.Locator, 0, len(industries))
	for _, industry := range industries {
		option, ok := s.industryOptions[models.IndustryKey(industry)]
		if !ok {
			return fmt.Errorf("%w: industry %q", ErrUnknownOption, industry)
		}
		selected = append(selected, option)
	}
	for i, option := range selected {
		if err := option.Click(); err != nil {
			return fmt.Errorf("failed to select industry %q: %w", industries[i], err)
		}
	}
	return nil
}

// FillBasicInfo fills the name and email inputs of the info step.
func (s *SignupPage) FillBasicInfo(firstName, lastName, email string) error {
	if err := s.firstNameInput.Fill(firstName); err != nil {
		return fmt.Errorf("failed to fill first name: %w", err)
	}
	if err := s.lastNameInput.Fill(lastName); err != nil {
		return fmt.Errorf("failed to fill last name: %w", err)
	}
	if err := s.emailInput.Fill(email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	return nil
}

// EnterVerificationCode fills the code input of the verify step.
func (s *SignupPage) EnterVerificationCode(code string) error {
	if err := s.verificationCodeInput.Fill(code); err != nil {
		return fmt.Errorf("failed to fill verification code: %w", err)
	}
	return nil
}

// SetPassword fills the password and confirmation inputs.
func (s *SignupPage) SetPassword(password, confirmPassword string) error {
	if err := s.passwordInput.Fill(password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := s.confirmPasswordInput.Fill(confirmPassword); err != nil {
		return fmt.Errorf("failed to fill confirm password: %w", err)
	}
	return nil
}

// ClickNext submits the current step.
func (s *SignupPage) ClickNext() error {
	if err := s.nextButton.Click(); err != nil {
		return fmt.Errorf("failed to click next: %w", err)
	}
	return nil
}

// ClickVerify posts the verification code.
func (s *SignupPage) ClickVerify() error {
	if err := s.verifyButton.Click(); err != nil {
		return fmt.Errorf("failed to click verify: %w", err)
	}
	return nil
}

// ClickCompleteSignup submits the final step of either flow.
func (s *SignupPage) ClickCompleteSignup() error {
	if err := s.completeSignupButton.Click(); err != nil {
		return fmt.Errorf("failed to click complete signup: %w", err)
	}
	return nil
}

// CompleteDirectSignup walks the email/password wizard from account type to
// the final submit. The first failing step aborts the traversal.
func (s *SignupPage) CompleteDirectSignup(profile models.AccountProfile) error {
	steps := append(s.selectionSteps(profile),
		step{"next after industries", s.ClickNext},
		step{"basic info", func() error {
			return s.FillBasicInfo(profile.FirstName, profile.LastName, profile.Email)
		}},
		step{"next after basic info", s.ClickNext},
		step{"verification code", func() error { return s.EnterVerificationCode(VerificationCode) }},
		step{"verify", s.ClickVerify},
		step{"password", func() error {
			if !profile.HasPassword() {
				return fmt.Errorf("%w: %s", ErrPasswordlessProfile, profile.Email)
			}
			return s.SetPassword(profile.Password, profile.ConfirmPassword)
		}},
		step{"complete signup", s.ClickCompleteSignup},
	)
	return s.run("direct", profile, steps)
}

// CompleteOAuthSignup walks the shorter identity-provider wizard, which ends
// after the industry selection.
func (s *SignupPage) CompleteOAuthSignup(profile models.AccountProfile) error {
	steps := append(s.selectionSteps(profile),
		step{"complete signup", s.ClickCompleteSignup},
	)
	return s.run("oauth", profile, steps)
}

func (s *SignupPage) selectionSteps(profile models.AccountProfile) []step {
	return []step{
		{"account type", func() error { return s.SelectAccountType(profile.AccountType) }},
		{"next after account type", s.ClickNext},
		{"primary role", func() error { return s.SelectPrimaryRole(profile.RoleKey()) }},
		{"next after primary role", s.ClickNext},
		{"industries", func() error { return s.SelectIndustries(profile.Industries) }},
	}
}

func (s *SignupPage) run(flow string, profile models.AccountProfile, steps []step) error {
	logger := s.opts.logger.With(zap.String("flow", flow), zap.String("email", profile.Email))
	for i, st := range steps {
		logger.Debug("signup step", zap.Int("index", i), zap.String("step", st.name))
		if err := st.run(); err != nil {
			return fmt.Errorf("%s signup step %d (%s): %w", flow, i+1, st.name, err)
		}
	}
	logger.Debug("signup submitted")
	return nil
}
