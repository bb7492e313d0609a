package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const onboardingPath = "/portal/onboarding"

// MaxOnboardingSteps bounds the exploratory traversal.
const MaxOnboardingSteps = 5

// OnboardingPage drives the post-signup onboarding wizard, whose step
// sequence is owned by the application and may change between releases.
type OnboardingPage struct {
	page playwright.Page
	opts options

	startButton         playwright.Locator
	resumeButton        playwright.Locator
	nextButton          playwright.Locator
	finishButton        playwright.Locator
	singleSelectOptions playwright.Locator
	multiSelectOptions  playwright.Locator
	inputFields         playwright.Locator

	StepIndicator     playwright.Locator
	ValidationMessage playwright.Locator
}

// NewOnboardingPage builds the onboarding locator bundle for page.
func NewOnboardingPage(page playwright.Page, opts ...Option) *OnboardingPage {
	return &OnboardingPage{
		page:                page,
		opts:                buildOptions(opts),
		startButton:         button(page, "get started|resume"),
		resumeButton:        button(page, "resume"),
		nextButton:          button(page, "next"),
		finishButton:        button(page, "finish|complete"),
		singleSelectOptions: page.Locator(".MuiRadio-root").Or(page.GetByRole(*playwright.AriaRoleRadio)),
		multiSelectOptions:  page.Locator(".MuiCheckbox-root").Or(page.GetByRole(*playwright.AriaRoleCheckbox)),
		inputFields:         page.Locator(`input[type="text"]`),
		StepIndicator:       page.GetByText(ci(`step \d+`)),
		ValidationMessage:   page.GetByText(ci("this field is required|please select an option")),
	}
}

// Page returns the tab this page object is bound to.
func (o *OnboardingPage) Page() playwright.Page {
	return o.page
}

// Goto opens the onboarding landing page.
func (o *OnboardingPage) Goto() error {
	if _, err := o.page.Goto(onboardingPath); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", onboardingPath, err)
	}
	return nil
}

// StartButton matches both the first-visit and the resume call to action.
func (o *OnboardingPage) StartButton() playwright.Locator {
	return o.startButton
}

// ResumeButton matches only the call to action shown once a step was answered.
func (o *OnboardingPage) ResumeButton() playwright.Locator {
	return o.resumeButton
}

// StartOnboarding clicks the start or resume button and waits for the first
// unanswered step.
func (o *OnboardingPage) StartOnboarding() error {
	if err := o.startButton.Click(); err != nil {
		return fmt.Errorf("failed to start onboarding: %w", err)
	}
	return o.settle()
}

// SelectSingleOption clicks the index-th single-choice option.
func (o *OnboardingPage) SelectSingleOption(index int) error {
	if err := o.singleSelectOptions.Nth(index).Click(); err != nil {
		return fmt.Errorf("failed to select option %d: %w", index, err)
	}
	return nil
}

// SelectMultipleOptions clicks the given multi-choice options, defaulting to
// the first two. Indices past the rendered options are skipped.
func (o *OnboardingPage) SelectMultipleOptions(indices ...int) error {
	if len(indices) == 0 {
		indices = []int{0, 1}
	}
	if err := o.multiSelectOptions.First().WaitFor(); err != nil {
		return fmt.Errorf("failed waiting for multi-select options: %w", err)
	}
	n, err := o.multiSelectOptions.Count()
	if err != nil {
		return fmt.Errorf("failed to count multi-select options: %w", err)
	}
	for _, i := range indices {
		if i >= n {
			continue
		}
		if err := o.multiSelectOptions.Nth(i).Click(); err != nil {
			return fmt.Errorf("failed to select option %d: %w", i, err)
		}
	}
	return nil
}

// FillTextField fills the index-th text input.
func (o *OnboardingPage) FillTextField(text string, index int) error {
	if err := o.inputFields.Nth(index).Fill(text); err != nil {
		return fmt.Errorf("failed to fill text field %d: %w", index, err)
	}
	return nil
}

// ClickNext advances to the next step.
func (o *OnboardingPage) ClickNext() error {
	if err := o.nextButton.Click(); err != nil {
		return fmt.Errorf("failed to click next: %w", err)
	}
	return o.settle()
}

// ClickFinish submits the last step.
func (o *OnboardingPage) ClickFinish() error {
	if err := o.finishButton.Click(); err != nil {
		return fmt.Errorf("failed to click finish: %w", err)
	}
	return o.settle()
}

// CompleteOnboarding starts the wizard and traverses it without knowing its
// steps in advance. Each step is probed for a single-choice, a multi-choice
// and a text control, then advanced. A step with no advance control ends the
// traversal normally.
func (o *OnboardingPage) CompleteOnboarding() (OnboardingResult, error) {
	if err := o.StartOnboarding(); err != nil {
		return OnboardingResult{}, err
	}
	return traverse(o.probes(), o.awaitStep, o.advance, o.opts.maxSteps, o.opts.strict, o.opts.logger)
}

// awaitStep gives a client-rendered step time to show its next or finish
// control. Controls are then looked up without waiting, so an expired wait
// only means the step has nothing to advance.
func (o *OnboardingPage) awaitStep(step int) {
	err := o.nextButton.Or(o.finishButton).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(o.opts.stepWait.Milliseconds())),
	})
	if err != nil {
		o.opts.logger.Debug("no advance control rendered", zap.Int("step", step), zap.Error(err))
	}
}

func (o *OnboardingPage) probes() []Probe {
	return []Probe{
		{Name: "single-select", Run: func(int) (ProbeOutcome, error) {
			return probeClick(o.singleSelectOptions, 0)
		}},
		{Name: "multi-select", Run: func(int) (ProbeOutcome, error) {
			return probeClick(o.multiSelectOptions, 0, 1)
		}},
		{Name: "text", Run: func(step int) (ProbeOutcome, error) {
			return probeFill(o.inputFields, fmt.Sprintf("Test input %d", step))
		}},
	}
}

// probeClick clicks the listed options that are rendered. The count is read
// without waiting, so a step without the control is reported immediately.
func probeClick(options playwright.Locator, indices ...int) (ProbeOutcome, error) {
	n, err := options.Count()
	if err != nil {
		return ProbeFailed, err
	}
	if n == 0 {
		return ProbeNotApplicable, nil
	}
	for _, i := range indices {
		if i >= n {
			continue
		}
		if err := options.Nth(i).Click(); err != nil {
			return ProbeFailed, err
		}
	}
	return ProbeHandled, nil
}

func probeFill(fields playwright.Locator, text string) (ProbeOutcome, error) {
	n, err := fields.Count()
	if err != nil {
		return ProbeFailed, err
	}
	if n == 0 {
		return ProbeNotApplicable, nil
	}
	if err := fields.Nth(0).Fill(text); err != nil {
		return ProbeFailed, err
	}
	return ProbeHandled, nil
}

// advance clicks next, falling back to finish; on the final iteration only
// finish is tried.
func (o *OnboardingPage) advance(_ int, final bool) (AdvanceKind, error) {
	candidates := []struct {
		kind    AdvanceKind
		locator playwright.Locator
	}{
		{AdvanceNext, o.nextButton},
		{AdvanceFinish, o.finishButton},
	}
	if final {
		candidates = candidates[1:]
	}
	for _, c := range candidates {
		n, err := c.locator.Count()
		if err != nil {
			return AdvanceNone, fmt.Errorf("failed to look up %s control: %w", c.kind, err)
		}
		if n == 0 {
			continue
		}
		if err := c.locator.Click(); err != nil {
			return c.kind, fmt.Errorf("failed to click %s: %w", c.kind, err)
		}
		return c.kind, o.settle()
	}
	return AdvanceNone, nil
}

// settle waits for the network to go idle after a navigation-triggering click.
func (o *OnboardingPage) settle() error {
	if err := o.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("failed waiting for page to settle: %w", err)
	}
	return nil
}
