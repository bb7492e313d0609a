// Package browser owns the playwright lifecycle for a scenario: driver,
// browser, isolated context and tabs, plus network stubs and polling
// assertions.
package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/config"
	"github.com/medara-io/medara-e2e/internal/logging"
)

// ErrUnavailable is returned by Setup when the playwright driver or browser
// binaries cannot be started on this machine.
var ErrUnavailable = errors.New("playwright unavailable")

// Session provides browser setup and teardown for one scenario. The page and
// every tab opened through NewTab share one context, and with it the cookie
// and storage jar.
type Session struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	Context    playwright.BrowserContext
	Page       playwright.Page
	Config     *config.Config

	logger *zap.Logger
	t      testing.TB
}

// NewSession creates a session helper; call Setup before use.
func NewSession(t testing.TB, cfg *config.Config, logger *zap.Logger) *Session {
	return &Session{
		Config: cfg,
		logger: logging.OrNop(logger).With(zap.String("test", t.Name())),
		t:      t,
	}
}

// Start sets up a session and registers its teardown. Any setup error fails
// the test, unless playwright cannot run here and E2E_SKIP_UNAVAILABLE is set.
func Start(t testing.TB, cfg *config.Config, logger *zap.Logger) *Session {
	t.Helper()
	s := NewSession(t, cfg, logger)
	if err := s.Setup(); err != nil {
		s.TearDown()
		if skipOnSetupError(cfg, err) {
			t.Skipf("Skipping browser scenario (E2E_SKIP_UNAVAILABLE): %v", err)
		}
		t.Fatalf("Failed to set up browser: %v", err)
	}
	t.Cleanup(s.TearDown)
	return s
}

func skipOnSetupError(cfg *config.Config, err error) bool {
	return cfg.Browser.SkipUnavailable && errors.Is(err, ErrUnavailable)
}

// Install downloads the driver and the configured browser unless
// PLAYWRIGHT_PREINSTALLED says they are already present.
func Install(cfg *config.Config) error {
	if cfg.Browser.SkipInstall {
		return nil
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{cfg.Browser.Name}}); err != nil {
		return fmt.Errorf("could not install playwright %s: %w", cfg.Browser.Name, err)
	}
	return nil
}

// Setup starts playwright, launches the configured browser and opens a page
// in a fresh context rooted at the frontend URL.
func (s *Session) Setup() error {
	cfg := s.Config
	if err := Install(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("%w: could not start playwright: %v", ErrUnavailable, err)
	}
	s.Playwright = pw

	browserType, err := s.browserType()
	if err != nil {
		return err
	}
	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Browser.Headless),
		SlowMo:   playwright.Float(float64(cfg.Browser.SlowMo.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: could not launch %s: %v", ErrUnavailable, cfg.Browser.Name, err)
	}
	s.Browser = browser

	opts, err := s.contextOptions()
	if err != nil {
		return err
	}
	context, err := browser.NewContext(opts)
	if err != nil {
		return fmt.Errorf("could not create context: %w", err)
	}
	s.Context = context
	context.SetDefaultTimeout(float64(cfg.Browser.Timeout.Milliseconds()))

	page, err := context.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}
	s.Page = page

	s.logger.Debug("browser session ready",
		zap.String("browser", cfg.Browser.Name),
		zap.String("device", cfg.Browser.Device),
		zap.String("base_url", cfg.Environment.FrontendURL))
	return nil
}

func (s *Session) browserType() (playwright.BrowserType, error) {
	switch s.Config.Browser.Name {
	case "chromium":
		return s.Playwright.Chromium, nil
	case "firefox":
		return s.Playwright.Firefox, nil
	case "webkit":
		return s.Playwright.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported browser %q", s.Config.Browser.Name)
}

func (s *Session) contextOptions() (playwright.BrowserNewContextOptions, error) {
	cfg := s.Config
	opts := playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(cfg.Environment.FrontendURL),
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		ExtraHttpHeaders: map[string]string{
			"x-environment": cfg.Environment.Name,
		},
	}

	if cfg.Browser.Device != "" {
		device, ok := s.Playwright.Devices[cfg.Browser.Device]
		if !ok {
			return opts, fmt.Errorf("unknown device descriptor %q", cfg.Browser.Device)
		}
		opts.UserAgent = playwright.String(device.UserAgent)
		opts.Viewport = device.Viewport
		opts.DeviceScaleFactor = playwright.Float(device.DeviceScaleFactor)
		opts.IsMobile = playwright.Bool(device.IsMobile)
		opts.HasTouch = playwright.Bool(device.HasTouch)
	}

	if cfg.Browser.Videos {
		opts.RecordVideo = &playwright.RecordVideo{
			Dir: filepath.Join(cfg.Browser.ArtifactsDir, "videos"),
		}
	}
	return opts, nil
}

// TearDown captures a screenshot when the test failed and closes everything
// Setup opened. It is safe after a partial Setup and safe to call twice.
func (s *Session) TearDown() {
	if s.t.Failed() && s.Config.Browser.Screenshots && s.Page != nil {
		if path, err := s.Screenshot("failure"); err != nil {
			s.logger.Warn("failure screenshot not captured", zap.Error(err))
		} else {
			s.t.Logf("Failure screenshot: %s", path)
		}
	}

	if s.Context != nil {
		if err := s.Context.Close(); err != nil {
			s.logger.Debug("context close", zap.Error(err))
		}
		s.Context = nil
		s.Page = nil
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			s.logger.Debug("browser close", zap.Error(err))
		}
		s.Browser = nil
	}
	if s.Playwright != nil {
		if err := s.Playwright.Stop(); err != nil {
			s.logger.Debug("playwright stop", zap.Error(err))
		}
		s.Playwright = nil
	}
}

// Screenshot writes a full-page PNG of the main tab under the artifacts dir.
func (s *Session) Screenshot(label string) (string, error) {
	dir := filepath.Join(s.Config.Browser.ArtifactsDir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%d.png", artifactName(s.t.Name()), label, time.Now().Unix()))
	if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	return path, nil
}

var artifactReplacer = strings.NewReplacer("/", "_", " ", "_", ":", "_")

func artifactName(testName string) string {
	return artifactReplacer.Replace(testName)
}

// NewTab opens another tab in the same context. It shares the session's
// cookies and storage but nothing else.
func (s *Session) NewTab() (playwright.Page, error) {
	page, err := s.Context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not open tab: %w", err)
	}
	return page, nil
}
