package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const signinPath = "/auth/signin"

// SignedInURL matches where the application lands a signed-in user.
var SignedInURL = ci("portal|dashboard")

// SigninPage drives the email/password sign-in form.
type SigninPage struct {
	page playwright.Page
	opts options

	emailInput    playwright.Locator
	passwordInput playwright.Locator
	signInButton  playwright.Locator

	// ErrorMessage is the alert shown after rejected credentials.
	ErrorMessage playwright.Locator
}

// NewSigninPage builds the sign-in locator bundle for page.
func NewSigninPage(page playwright.Page, opts ...Option) *SigninPage {
	return &SigninPage{
		page:          page,
		opts:          buildOptions(opts),
		emailInput:    page.GetByLabel(ci("email")),
		passwordInput: page.GetByLabel(ci("password")),
		signInButton:  button(page, "sign in"),
		ErrorMessage:  page.GetByRole(*playwright.AriaRoleAlert),
	}
}

// Goto opens the sign-in form.
func (s *SigninPage) Goto() error {
	if _, err := s.page.Goto(signinPath); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", signinPath, err)
	}
	return nil
}

// SignIn opens the form, submits the credentials and waits until the browser
// reaches the portal.
func (s *SigninPage) SignIn(email, password string) error {
	s.opts.logger.Debug("signing in", zap.String("email", email))
	if err := s.Goto(); err != nil {
		return err
	}
	if err := s.Submit(email, password); err != nil {
		return err
	}
	if err := s.page.WaitForURL(SignedInURL); err != nil {
		return fmt.Errorf("sign in did not reach the portal: %w", err)
	}
	return nil
}

// Submit fills and submits the form on the current page without waiting for
// the outcome.
func (s *SigninPage) Submit(email, password string) error {
	if err := s.emailInput.Fill(email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	if err := s.passwordInput.Fill(password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := s.signInButton.Click(); err != nil {
		return fmt.Errorf("failed to click sign in: %w", err)
	}
	return nil
}
