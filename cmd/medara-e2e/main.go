package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/medara-io/medara-e2e/internal/backend"
	"github.com/medara-io/medara-e2e/internal/browser"
	"github.com/medara-io/medara-e2e/internal/config"
	"github.com/medara-io/medara-e2e/internal/fixtureapp"
	"github.com/medara-io/medara-e2e/internal/logging"
	"github.com/medara-io/medara-e2e/internal/models"
	"github.com/medara-io/medara-e2e/internal/report"
	"github.com/medara-io/medara-e2e/internal/version"
)

var (
	configFileFlag string
	envFileFlag    string
	logLevelFlag   string
	baseURLFlag    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medara-e2e",
	Short: "Medara end-to-end suite tooling",
	Long: `Medara E2E command line interface

Inspects the resolved suite configuration, installs playwright browsers,
serves the fixture application and manages test accounts through the API.
The scenarios themselves run with "go test ./tests/e2e/...".`,
	Version:           version.Get().String(),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	defaults := config.DefaultOptions()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFileFlag, "config", defaults.ConfigFile, "YAML file with environment profiles and browser settings")
	flags.StringVar(&envFileFlag, "env-file", defaults.EnvFile, "dotenv file loaded before the environment is read")
	flags.StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error); overrides E2E_LOG_LEVEL")
	flags.StringVar(&baseURLFlag, "base-url", "", "point frontend and backend at this URL, e.g. a running fixture app")

	rootCmd.AddCommand(envCmd, installCmd, serveCmd, registerCmd, cleanupCmd, versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(config.Options{ConfigFile: configFileFlag, EnvFile: envFileFlag})
	if err != nil {
		return err
	}
	if baseURLFlag != "" {
		loaded.Environment = loaded.Environment.Rebase(baseURLFlag)
	}
	level := loaded.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	l, err := logging.New(level)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "medara-e2e %s\n", version.Get())
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the resolved configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		if len(cfg.Warnings) > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Configuration warnings:")
			for _, w := range cfg.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), w)
			}
		}
		return nil
	},
}

var installForceFlag bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the playwright driver and the configured browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		if installForceFlag {
			c.Browser.SkipInstall = false
		}
		if c.Browser.SkipInstall {
			fmt.Fprintln(cmd.OutOrStdout(), "PLAYWRIGHT_PREINSTALLED is set, nothing to install")
			return nil
		}
		logger.Info("installing playwright", zap.String("browser", c.Browser.Name))
		if err := browser.Install(&c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed playwright with %s\n", c.Browser.Name)
		return nil
	},
}

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fixture application until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := fixtureapp.New(fixtureapp.WithLogger(logger))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Serve(ctx, serveAddrFlag, func(addr net.Addr) {
			fmt.Fprintf(cmd.OutOrStdout(), "Fixture application on http://%s (use --base-url or TEST_ENV=fixture)\n", addr)
		})
	},
}

var (
	registerTypeFlag  string
	registerEmailFlag string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a test account through the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := profileFor(registerTypeFlag)
		if err != nil {
			return err
		}
		if registerEmailFlag != "" {
			profile = profile.WithEmail(registerEmailFlag)
		}
		if err := requireBackend(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		user, err := backend.New(cfg.Environment, logger, backend.WithTimeout(cfg.Browser.Timeout)).Register(ctx, profile)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(map[string]string{
			"id":           user.ID,
			"email":        profile.Email,
			"password":     profile.Password,
			"account_type": string(profile.AccountType),
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func profileFor(accountType string) (models.AccountProfile, error) {
	switch models.AccountType(accountType) {
	case models.AccountEmployer:
		return models.Employer(), nil
	case models.AccountFreelancer:
		return models.Freelancer(), nil
	}
	return models.AccountProfile{}, fmt.Errorf("unknown account type %q (employer or freelancer)", accountType)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup EMAIL...",
	Short: "Delete test accounts, best effort",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBackend(); err != nil {
			return err
		}
		rep := report.New(cfg.Environment.Name)
		client := backend.New(cfg.Environment, logger, backend.WithTimeout(cfg.Browser.Timeout), backend.WithRecorder(rep))

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		client.CleanupUsers(ctx, args...)

		failures := rep.CleanupFailures()
		for _, f := range failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "not deleted: %s: %s\n", f.Email, f.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned up %d of %d accounts\n", len(args)-len(failures), len(args))
		return nil
	},
}

func requireBackend() error {
	if cfg.Environment.BackendURL == "" {
		return errors.New("no backend URL for this environment; pass --base-url")
	}
	return nil
}

func init() {
	installCmd.Flags().BoolVar(&installForceFlag, "force", false, "install even when PLAYWRIGHT_PREINSTALLED is set")
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "127.0.0.1:8088", "listen address")
	registerCmd.Flags().StringVar(&registerTypeFlag, "type", string(models.AccountEmployer), "account type (employer or freelancer)")
	registerCmd.Flags().StringVar(&registerEmailFlag, "email", "", "email address (default: generated)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
