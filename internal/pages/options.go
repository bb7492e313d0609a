package pages

import (
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnknownOption is returned when a selection key has no locator in the bundle.
	ErrUnknownOption = errors.New("unknown option")
	// ErrPasswordlessProfile is returned when the direct signup flow reaches the
	// password step with a profile that carries no password (an OAuth profile).
	ErrPasswordlessProfile = errors.New("profile has no password")
)

// VerificationCode is accepted by every non-production environment.
const VerificationCode = "123456"

// Option configures a page object.
type Option func(*options)

// DefaultStepWait bounds how long the onboarding traversal waits for a step's
// next or finish control to render before probing it.
const DefaultStepWait = 2 * time.Second

type options struct {
	logger   *zap.Logger
	strict   bool
	maxSteps int
	stepWait time.Duration
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		maxSteps: MaxOnboardingSteps,
		stepWait: DefaultStepWait,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for step tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictProbes makes the onboarding traversal fail on the first probe
// that found a control but could not operate it.
func WithStrictProbes() Option {
	return func(o *options) { o.strict = true }
}

// WithMaxSteps overrides the onboarding iteration cap.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithStepWait overrides DefaultStepWait.
func WithStepWait(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stepWait = d
		}
	}
}

// ci compiles a case-insensitive matcher.
func ci(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// step is one named unit of an orchestrated flow.
type step struct {
	name string
	run  func() error
}
