package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// ErrUnknownEnvironment is returned when TEST_ENV names a profile that is not configured.
var ErrUnknownEnvironment = errors.New("unknown test environment")

const (
	EnvLocal   = "local"
	EnvDemo    = "demo"
	EnvFixture = "fixture"
)

// Config is the resolved suite configuration. It is built once per process by
// Load and handed to every component that needs URLs or browser settings.
type Config struct {
	Environment Environment   `yaml:"environment"`
	Browser     BrowserConfig `yaml:"browser"`
	ReportPath  string        `yaml:"report_path"`
	LogLevel    string        `yaml:"log_level"`

	// Warnings are the non-fatal findings of the validation run by Load.
	Warnings []string `yaml:"-"`
}

// Environment is one named deployment the suite can target.
type Environment struct {
	Name            string `yaml:"name"`
	FrontendURL     string `yaml:"frontend_url"`
	BackendURL      string `yaml:"backend_url"`
	APIBasePath     string `yaml:"api_base_path"`
	HealthCheckPath string `yaml:"health_check_path"`
}

// BrowserConfig controls how playwright launches the browser.
type BrowserConfig struct {
	Name         string        `yaml:"name"`
	Device       string        `yaml:"device,omitempty"`
	Headless     bool          `yaml:"headless"`
	SlowMo       time.Duration `yaml:"slow_mo"`
	Timeout      time.Duration `yaml:"timeout"`
	Screenshots  bool          `yaml:"screenshots"`
	Videos       bool          `yaml:"videos"`
	ArtifactsDir string        `yaml:"artifacts_dir"`
	SkipInstall  bool          `yaml:"skip_install"`

	// SkipUnavailable turns a missing playwright driver or browser into a
	// skipped scenario instead of a failed one.
	SkipUnavailable bool `yaml:"skip_unavailable"`
}

// Options locates the optional configuration sources.
type Options struct {
	// ConfigFile is a YAML file overriding environment profiles and browser settings.
	ConfigFile string
	// EnvFile is a dotenv file; variables already present in the process win.
	EnvFile string
}

// DefaultOptions reads E2E_CONFIG for the YAML file and ".env" for dotenv.
func DefaultOptions() Options {
	return Options{
		ConfigFile: os.Getenv("E2E_CONFIG"),
		EnvFile:    ".env",
	}
}

var defaultEnvironments = map[string]Environment{
	EnvLocal: {
		FrontendURL:     "http://localhost:3000",
		BackendURL:      "http://localhost:4000",
		APIBasePath:     "",
		HealthCheckPath: "/api/health",
	},
	EnvDemo: {
		FrontendURL:     "https://demo-medara.com",
		BackendURL:      "https://demo-medara.com",
		APIBasePath:     "api",
		HealthCheckPath: "/api/health",
	},
	// URLs are filled in once the in-process fixture application is listening.
	EnvFixture: {
		APIBasePath:     "api",
		HealthCheckPath: "/api/health",
	},
}

// Load resolves the configuration: built-in defaults, then the dotenv file,
// then the YAML file, with environment variables taking precedence over both.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := gotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	env, err := resolveEnvironment(v, v.GetString("test_env"))
	if err != nil {
		return nil, err
	}

	slowMo, err := parseMillis(v.GetString("browser.slow_mo"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLOW_MO: %w", err)
	}
	timeout, err := parseMillis(v.GetString("browser.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid E2E_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Environment: env,
		Browser: BrowserConfig{
			Name:         strings.ToLower(v.GetString("browser.name")),
			Device:       v.GetString("browser.device"),
			Headless:     v.GetBool("browser.headless"),
			SlowMo:       slowMo,
			Timeout:      timeout,
			Screenshots:  v.GetBool("browser.screenshots"),
			Videos:       v.GetBool("browser.videos"),
			ArtifactsDir: v.GetString("browser.artifacts_dir"),
			SkipInstall:  v.GetBool("browser.skip_install"),

			SkipUnavailable: v.GetBool("browser.skip_unavailable"),
		},
		ReportPath: v.GetString("report_path"),
		LogLevel:   v.GetString("log_level"),
	}

	validator := NewValidator(cfg)
	if err := validator.Validate(); err != nil {
		return nil, err
	}
	cfg.Warnings = validator.Warnings()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("test_env", EnvLocal)
	for name, env := range defaultEnvironments {
		prefix := "environments." + name + "."
		v.SetDefault(prefix+"frontend_url", env.FrontendURL)
		v.SetDefault(prefix+"backend_url", env.BackendURL)
		v.SetDefault(prefix+"api_base_path", env.APIBasePath)
		v.SetDefault(prefix+"health_check_path", env.HealthCheckPath)
	}
	v.SetDefault("browser.name", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", "0")
	v.SetDefault("browser.timeout", "30s")
	v.SetDefault("browser.screenshots", true)
	v.SetDefault("browser.videos", false)
	v.SetDefault("browser.skip_unavailable", false)
	v.SetDefault("browser.artifacts_dir", "./test-results")
	v.SetDefault("report_path", "./test-results/report.yaml")
	v.SetDefault("log_level", "info")
}

func bindEnv(v *viper.Viper) {
	// Names kept compatible with the existing CI and .env files.
	_ = v.BindEnv("test_env", "TEST_ENV")
	_ = v.BindEnv("browser.name", "BROWSER")
	_ = v.BindEnv("browser.device", "DEVICE")
	_ = v.BindEnv("browser.headless", "HEADLESS")
	_ = v.BindEnv("browser.slow_mo", "SLOW_MO")
	_ = v.BindEnv("browser.timeout", "E2E_TIMEOUT")
	_ = v.BindEnv("browser.screenshots", "SCREENSHOTS")
	_ = v.BindEnv("browser.videos", "VIDEOS")
	_ = v.BindEnv("browser.artifacts_dir", "E2E_ARTIFACTS_DIR")
	_ = v.BindEnv("browser.skip_install", "PLAYWRIGHT_PREINSTALLED")
	_ = v.BindEnv("browser.skip_unavailable", "E2E_SKIP_UNAVAILABLE")
	_ = v.BindEnv("report_path", "E2E_REPORT")
	_ = v.BindEnv("log_level", "E2E_LOG_LEVEL")

	// Profile fields, e.g. MEDARA_E2E_ENVIRONMENTS_DEMO_FRONTEND_URL.
	v.SetEnvPrefix("MEDARA_E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func resolveEnvironment(v *viper.Viper, name string) (Environment, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = EnvLocal
	}
	prefix := "environments." + name
	if _, builtin := defaultEnvironments[name]; !builtin && !v.IsSet(prefix) {
		return Environment{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEnvironment, name, strings.Join(knownEnvironments(v), ", "))
	}
	return Environment{
		Name:            name,
		FrontendURL:     strings.TrimRight(v.GetString(prefix+".frontend_url"), "/"),
		BackendURL:      strings.TrimRight(v.GetString(prefix+".backend_url"), "/"),
		APIBasePath:     v.GetString(prefix + ".api_base_path"),
		HealthCheckPath: v.GetString(prefix + ".health_check_path"),
	}, nil
}

func knownEnvironments(v *viper.Viper) []string {
	seen := map[string]struct{}{}
	for name := range defaultEnvironments {
		seen[name] = struct{}{}
	}
	for name := range v.GetStringMap("environments") {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseMillis accepts a Go duration ("250ms", "30s") or a bare integer in milliseconds.
func parseMillis(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

// APIURL joins the backend URL, the API prefix and path with single slashes.
// A single leading slash on path is ignored.
func (e Environment) APIURL(path string) string {
	path = strings.TrimPrefix(path, "/")
	base := strings.Trim(e.APIBasePath, "/")
	if base == "" {
		return e.BackendURL + "/" + path
	}
	return e.BackendURL + "/" + base + "/" + path
}

// PageURL joins the frontend URL and an application path.
func (e Environment) PageURL(path string) string {
	return e.FrontendURL + "/" + strings.TrimPrefix(path, "/")
}

// HealthURL is the backend readiness endpoint.
func (e Environment) HealthURL() string {
	return e.BackendURL + "/" + strings.TrimPrefix(e.HealthCheckPath, "/")
}

// Rebase points both frontend and backend at baseURL. Used when the suite
// hosts the fixture application itself.
func (e Environment) Rebase(baseURL string) Environment {
	baseURL = strings.TrimRight(baseURL, "/")
	e.FrontendURL = baseURL
	e.BackendURL = baseURL
	return e
}
