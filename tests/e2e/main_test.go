// Package e2e holds the browser scenarios for signup and onboarding. They
// target TEST_ENV; when that is "fixture", or the local stack is not up, the
// suite serves the fixture application in-process instead.
package e2e

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/backend"
	"github.com/medara-io/medara-e2e/internal/config"
	"github.com/medara-io/medara-e2e/internal/fixtureapp"
	"github.com/medara-io/medara-e2e/internal/logging"
	"github.com/medara-io/medara-e2e/internal/report"
)

var (
	suiteConfig *config.Config
	suiteLogger *zap.Logger
	suiteReport *report.Report

	// fixture is set when the suite hosts the application itself.
	fixture *fixtureapp.App
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	cfg, err := config.Load(config.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if useFixture(cfg, logger) {
		gin.SetMode(gin.ReleaseMode)
		app, err := fixtureapp.New(fixtureapp.WithLogger(logger))
		if err != nil {
			logger.Error("fixture application failed to start", zap.Error(err))
			return 1
		}
		server := httptest.NewServer(app.Handler())
		defer server.Close()

		cfg.Environment = config.Environment{
			Name:            config.EnvFixture,
			APIBasePath:     "api",
			HealthCheckPath: "/api/health",
		}.Rebase(server.URL)
		fixture = app
		logger.Info("serving fixture application", zap.String("url", server.URL))
	}

	suiteConfig = cfg
	suiteLogger = logger
	suiteReport = report.New(cfg.Environment.Name)

	code := m.Run()

	if !suiteReport.Empty() && cfg.ReportPath != "" {
		if err := suiteReport.Write(cfg.ReportPath); err != nil {
			logger.Warn("report not written", zap.Error(err))
		} else {
			logger.Info("report written", zap.String("path", cfg.ReportPath))
		}
	}
	return code
}

// useFixture decides whether to host the fixture application: always for the
// fixture profile, and for local when nothing answers the health check.
func useFixture(cfg *config.Config, logger *zap.Logger) bool {
	switch cfg.Environment.Name {
	case config.EnvFixture:
		return true
	case config.EnvLocal:
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := backend.New(cfg.Environment, logger).Health(ctx); err != nil {
			logger.Warn("local stack unreachable, falling back to the fixture application",
				zap.String("health_url", cfg.Environment.HealthURL()),
				zap.Error(err))
			return true
		}
	}
	return false
}
