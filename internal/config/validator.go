package config

import (
	"fmt"
	"net/url"
	"strings"
)

var supportedBrowsers = map[string]bool{
	"chromium": true,
	"firefox":  true,
	"webkit":   true,
}

// Validator checks a resolved Config before any browser is launched.
type Validator struct {
	config   *Config
	errors   []string
	warnings []string
}

func NewValidator(cfg *Config) *Validator {
	return &Validator{
		config:   cfg,
		errors:   []string{},
		warnings: []string{},
	}
}

// Validate returns an error listing every problem found.
func (v *Validator) Validate() error {
	v.validateEnvironment()
	v.validateBrowser()

	if len(v.errors) > 0 {
		return fmt.Errorf("config validation failed:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

// Warnings returns the non-fatal findings from the last Validate call.
func (v *Validator) Warnings() []string {
	return v.warnings
}

func (v *Validator) validateEnvironment() {
	env := v.config.Environment

	// The fixture profile gets its URLs after the in-process app starts.
	if env.Name == EnvFixture && env.FrontendURL == "" && env.BackendURL == "" {
		return
	}

	v.validateURL("frontend_url", env.FrontendURL)
	v.validateURL("backend_url", env.BackendURL)

	if strings.Contains(env.APIBasePath, "://") {
		v.addError(fmt.Sprintf("environment %s: api_base_path must be a path, got %q", env.Name, env.APIBasePath))
	}
	if env.HealthCheckPath == "" {
		v.addWarning(fmt.Sprintf("environment %s: health_check_path is empty, readiness probes will hit the backend root", env.Name))
	}
}

func (v *Validator) validateURL(field, raw string) {
	env := v.config.Environment.Name
	if raw == "" {
		v.addError(fmt.Sprintf("environment %s: %s is not set", env, field))
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.addError(fmt.Sprintf("environment %s: %s %q is not an absolute URL", env, field, raw))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError(fmt.Sprintf("environment %s: %s must use http or https", env, field))
	}
}

func (v *Validator) validateBrowser() {
	b := v.config.Browser

	if !supportedBrowsers[b.Name] {
		v.addError(fmt.Sprintf("browser %q is not supported (chromium, firefox, webkit)", b.Name))
	}
	if b.Timeout <= 0 {
		v.addError("browser timeout must be positive")
	}
	if b.SlowMo < 0 {
		v.addError("SLOW_MO must not be negative")
	}
	if b.Screenshots || b.Videos {
		if b.ArtifactsDir == "" {
			v.addError("artifacts_dir is required when screenshots or videos are enabled")
		}
	}
}

func (v *Validator) addError(message string) {
	v.errors = append(v.errors, "   - "+message)
}

func (v *Validator) addWarning(message string) {
	v.warnings = append(v.warnings, "   - "+message)
}
