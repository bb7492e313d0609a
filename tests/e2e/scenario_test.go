package e2e

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/medara-io/medara-e2e/internal/backend"
	"github.com/medara-io/medara-e2e/internal/browser"
	"github.com/medara-io/medara-e2e/internal/fixtureapp"
	"github.com/medara-io/medara-e2e/internal/models"
	"github.com/medara-io/medara-e2e/internal/pages"
)

// scenario is the per-test harness: a browser session, polling assertions,
// the API client and the accounts to delete afterwards.
type scenario struct {
	t       *testing.T
	session *browser.Session
	page    playwright.Page
	expect  *browser.Expect
	api     *backend.Client
	logger  *zap.Logger

	mu     sync.Mutex
	emails []string
}

func newScenario(t *testing.T) *scenario {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	session := browser.Start(t, suiteConfig, logger)

	api := backend.New(suiteConfig.Environment, logger,
		backend.WithTimeout(suiteConfig.Browser.Timeout),
		backend.WithRecorder(suiteReport),
	)

	sc := &scenario{
		t:       t,
		session: session,
		page:    session.Page,
		expect:  browser.NewExpect(suiteConfig.Browser.Timeout),
		api:     api,
		logger:  logger,
	}
	t.Cleanup(sc.cleanup)
	return sc
}

// track schedules an account for deletion when the test ends.
func (sc *scenario) track(email string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.emails = append(sc.emails, email)
}

// trackSignedInAccount schedules the account shown in the portal header for
// deletion. Flows where the application picks the address, like OAuth, need it.
func (sc *scenario) trackSignedInAccount(page playwright.Page) {
	sc.t.Helper()
	email, err := page.GetByTestId("account-email").TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil || strings.TrimSpace(email) == "" {
		sc.logger.Warn("signed-in account address not shown, account will not be cleaned up", zap.Error(err))
		return
	}
	sc.track(strings.TrimSpace(email))
}

func (sc *scenario) cleanup() {
	sc.mu.Lock()
	emails := append([]string(nil), sc.emails...)
	sc.mu.Unlock()
	if len(emails) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sc.api.CleanupUsers(ctx, emails...)
}

func (sc *scenario) pageOptions() []pages.Option {
	return []pages.Option{pages.WithLogger(sc.logger)}
}

// mockVerification stubs the verify endpoint on page.
func (sc *scenario) mockVerification(page playwright.Page) *browser.Stub {
	sc.t.Helper()
	stub, err := browser.MockEmailVerification(page, sc.logger)
	require.NoError(sc.t, err)
	return stub
}

// signUp creates profile through the signup wizard on page with verification
// stubbed, and waits for the onboarding landing page.
func (sc *scenario) signUp(page playwright.Page, profile models.AccountProfile) {
	sc.t.Helper()
	sc.mockVerification(page)
	sc.track(profile.Email)

	signup := pages.NewSignupPage(page, sc.pageOptions()...)
	require.NoError(sc.t, signup.Goto())
	require.NoError(sc.t, signup.CompleteDirectSignup(profile))
	require.NoError(sc.t, sc.expect.URL(page, "onboarding"))
}

// requireFixture skips tests that need to reach into the application.
func requireFixture(t *testing.T) *fixtureapp.App {
	t.Helper()
	if fixture == nil {
		t.Skip("Scenario needs the in-process fixture application (TEST_ENV=fixture)")
	}
	return fixture
}
