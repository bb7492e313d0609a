package browser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Expect wraps playwright's retrying assertions. Patterns are matched
// case-insensitively, the way the suite's locators are.
type Expect struct {
	assertions playwright.PlaywrightAssertions
}

// NewExpect returns assertions that poll for up to timeout.
func NewExpect(timeout time.Duration) *Expect {
	return &Expect{assertions: playwright.NewPlaywrightAssertions(float64(timeout.Milliseconds()))}
}

// URL waits for the page URL to match pattern.
func (e *Expect) URL(page playwright.Page, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid URL pattern %q: %w", pattern, err)
	}
	if err := e.assertions.Page(page).ToHaveURL(re); err != nil {
		return fmt.Errorf("expected URL matching /%s/, at %s: %w", pattern, page.URL(), err)
	}
	return nil
}

// NotURL waits for the page URL to stop matching pattern, which holds
// immediately when it never matched.
func (e *Expect) NotURL(page playwright.Page, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid URL pattern %q: %w", pattern, err)
	}
	if err := e.assertions.Page(page).Not().ToHaveURL(re); err != nil {
		return fmt.Errorf("expected URL not matching /%s/, at %s: %w", pattern, page.URL(), err)
	}
	return nil
}

// Visible waits for locator to become visible.
func (e *Expect) Visible(locator playwright.Locator) error {
	if err := e.assertions.Locator(locator).ToBeVisible(); err != nil {
		return fmt.Errorf("expected %v to be visible: %w", locator, err)
	}
	return nil
}

// TextVisible waits for text matching pattern to be visible on the page.
func (e *Expect) TextVisible(page playwright.Page, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid text pattern %q: %w", pattern, err)
	}
	if err := e.assertions.Locator(page.GetByText(re).First()).ToBeVisible(); err != nil {
		return fmt.Errorf("expected text /%s/ to be visible: %w", pattern, err)
	}
	return nil
}

// Text waits for locator's text to contain a match for pattern.
func (e *Expect) Text(locator playwright.Locator, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid text pattern %q: %w", pattern, err)
	}
	if err := e.assertions.Locator(locator).ToContainText(re); err != nil {
		return fmt.Errorf("expected %v to contain /%s/: %w", locator, pattern, err)
	}
	return nil
}
