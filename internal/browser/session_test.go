package browser

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medara-io/medara-e2e/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: config.Environment{
			Name:        config.EnvLocal,
			FrontendURL: "http://localhost:3000",
			BackendURL:  "http://localhost:4000",
		},
		Browser: config.BrowserConfig{
			Name:         "chromium",
			Headless:     true,
			ArtifactsDir: t.TempDir(),
		},
	}
}

func TestContextOptions(t *testing.T) {
	t.Run("desktop defaults", func(t *testing.T) {
		cfg := testConfig(t)
		s := NewSession(t, cfg, nil)

		opts, err := s.contextOptions()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000", *opts.BaseURL)
		assert.Equal(t, &playwright.Size{Width: 1280, Height: 720}, opts.Viewport)
		assert.Equal(t, map[string]string{"x-environment": "local"}, opts.ExtraHttpHeaders)
		assert.Nil(t, opts.RecordVideo)
		assert.Nil(t, opts.IsMobile)
	})

	t.Run("video recording", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Browser.Videos = true
		s := NewSession(t, cfg, nil)

		opts, err := s.contextOptions()
		require.NoError(t, err)
		require.NotNil(t, opts.RecordVideo)
		assert.Equal(t, filepath.Join(cfg.Browser.ArtifactsDir, "videos"), opts.RecordVideo.Dir)
	})

	t.Run("device descriptor", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Browser.Device = "Pixel 5"
		s := NewSession(t, cfg, nil)
		s.Playwright = &playwright.Playwright{
			Devices: map[string]*playwright.DeviceDescriptor{
				"Pixel 5": {
					UserAgent:         "pixel-agent",
					Viewport:          &playwright.Size{Width: 393, Height: 727},
					DeviceScaleFactor: 2.75,
					IsMobile:          true,
					HasTouch:          true,
				},
			},
		}

		opts, err := s.contextOptions()
		require.NoError(t, err)
		assert.Equal(t, "pixel-agent", *opts.UserAgent)
		assert.Equal(t, 393, opts.Viewport.Width)
		assert.InDelta(t, 2.75, *opts.DeviceScaleFactor, 0.001)
		assert.True(t, *opts.IsMobile)
		assert.True(t, *opts.HasTouch)
	})

	t.Run("unknown device", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Browser.Device = "Nokia 3310"
		s := NewSession(t, cfg, nil)
		s.Playwright = &playwright.Playwright{Devices: map[string]*playwright.DeviceDescriptor{}}

		_, err := s.contextOptions()
		assert.ErrorContains(t, err, "Nokia 3310")
	})
}

func TestBrowserType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Name = "netscape"
	s := NewSession(t, cfg, nil)
	s.Playwright = &playwright.Playwright{}

	_, err := s.browserType()
	assert.ErrorContains(t, err, "unsupported browser")
}

func TestInstallSkipsWhenPreinstalled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.SkipInstall = true
	assert.NoError(t, Install(cfg))
}

func TestSkipOnSetupError(t *testing.T) {
	unavailable := fmt.Errorf("%w: could not start playwright: driver missing", ErrUnavailable)

	tests := []struct {
		name   string
		optIn  bool
		err    error
		expect bool
	}{
		{"unavailable fails by default", false, unavailable, false},
		{"unavailable skips when opted in", true, unavailable, true},
		{"other errors always fail", true, errors.New("could not create page"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Browser.SkipUnavailable = tt.optIn
			assert.Equal(t, tt.expect, skipOnSetupError(cfg, tt.err))
		})
	}
}

func TestTearDownWithoutSetup(t *testing.T) {
	s := NewSession(t, testConfig(t), nil)
	assert.NotPanics(t, func() {
		s.TearDown()
		s.TearDown()
	})
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "TestSignup_employer_flow", artifactName("TestSignup/employer flow"))
	assert.Equal(t, "TestA_b", artifactName("TestA:b"))
}
