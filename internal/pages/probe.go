package pages

import (
	"fmt"

	"go.uber.org/zap"
)

// ProbeOutcome is the result of trying one control type on a wizard step.
type ProbeOutcome int

const (
	// ProbeNotApplicable means the step has no control of this type.
	ProbeNotApplicable ProbeOutcome = iota
	// ProbeHandled means the control was found and operated.
	ProbeHandled
	// ProbeFailed means the control was found but operating it failed.
	ProbeFailed
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeHandled:
		return "handled"
	case ProbeFailed:
		return "failed"
	default:
		return "not-applicable"
	}
}

// MarshalText lets outcomes appear by name in reports.
func (o ProbeOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// AdvanceKind records which control moved the wizard forward.
type AdvanceKind string

const (
	AdvanceNone   AdvanceKind = "none"
	AdvanceNext   AdvanceKind = "next"
	AdvanceFinish AdvanceKind = "finish"
)

// Termination explains why a traversal stopped.
type Termination string

const (
	// TerminatedNoAdvance means a step offered neither next nor finish. This is
	// the normal end of the wizard.
	TerminatedNoAdvance Termination = "no-advance-control"
	// TerminatedIterationCap means the traversal used every iteration it was allowed.
	TerminatedIterationCap Termination = "iteration-cap"
)

// Probe tries to complete a step with one kind of control.
type Probe struct {
	Name string
	Run  func(step int) (ProbeOutcome, error)
}

// ProbeResult is one probe attempt on one step.
type ProbeResult struct {
	Probe   string       `yaml:"probe"`
	Outcome ProbeOutcome `yaml:"outcome"`
	Error   string       `yaml:"error,omitempty"`
}

// StepTrace is everything the traversal did on one iteration.
type StepTrace struct {
	Index   int           `yaml:"index"`
	Probes  []ProbeResult `yaml:"probes"`
	Advance AdvanceKind   `yaml:"advance"`
}

// Handled returns the names of the probes that operated a control on the step.
func (s StepTrace) Handled() []string {
	var names []string
	for _, p := range s.Probes {
		if p.Outcome == ProbeHandled {
			names = append(names, p.Probe)
		}
	}
	return names
}

// OnboardingResult is the trace of one exploratory traversal.
type OnboardingResult struct {
	Steps       []StepTrace `yaml:"steps"`
	Termination Termination `yaml:"termination"`
}

// Iterations is the number of loop iterations that ran, including the last
// one that found nothing to advance.
func (r OnboardingResult) Iterations() int {
	return len(r.Steps)
}

// Finished reports whether a finish control was clicked.
func (r OnboardingResult) Finished() bool {
	for _, s := range r.Steps {
		if s.Advance == AdvanceFinish {
			return true
		}
	}
	return false
}

// Failures lists probes that found a control they could not operate.
func (r OnboardingResult) Failures() []ProbeResult {
	var failed []ProbeResult
	for _, s := range r.Steps {
		for _, p := range s.Probes {
			if p.Outcome == ProbeFailed {
				failed = append(failed, p)
			}
		}
	}
	return failed
}

// advancer moves the wizard forward. It returns AdvanceNone with a nil error
// when the step offers no advance control.
type advancer func(step int, final bool) (AdvanceKind, error)

// stepWaiter blocks until the current step has rendered, or a bounded wait
// runs out. It is not an error for the wait to expire.
type stepWaiter func(step int)

// traverse runs the probe-and-advance loop for at most maxSteps iterations.
// Every probe runs on every step, so a step mixing control types is filled
// completely; a step where no probe applies is a no-op step. A failed probe is
// recorded and the remaining probes still run, unless strict is set.
func traverse(probes []Probe, await stepWaiter, advance advancer, maxSteps int, strict bool, logger *zap.Logger) (OnboardingResult, error) {
	var result OnboardingResult

	for i := 0; i < maxSteps; i++ {
		trace := StepTrace{Index: i, Advance: AdvanceNone}
		if await != nil {
			await(i)
		}

		for _, probe := range probes {
			outcome, err := probe.Run(i)
			res := ProbeResult{Probe: probe.Name, Outcome: outcome}
			if err != nil {
				res.Error = err.Error()
			}
			trace.Probes = append(trace.Probes, res)

			if outcome == ProbeFailed {
				logger.Warn("onboarding probe failed",
					zap.Int("step", i), zap.String("probe", probe.Name), zap.Error(err))
				if strict {
					result.Steps = append(result.Steps, trace)
					return result, fmt.Errorf("onboarding step %d: %s probe: %w", i, probe.Name, err)
				}
			}
		}

		kind, err := advance(i, i == maxSteps-1)
		trace.Advance = kind
		result.Steps = append(result.Steps, trace)
		if err != nil {
			return result, fmt.Errorf("onboarding step %d: %w", i, err)
		}
		if kind == AdvanceNone {
			logger.Info("no next/finish control, ending onboarding traversal", zap.Int("step", i))
			result.Termination = TerminatedNoAdvance
			return result, nil
		}
		logger.Debug("onboarding step advanced",
			zap.Int("step", i), zap.Strings("handled_by", trace.Handled()), zap.String("advance", string(kind)))
	}

	result.Termination = TerminatedIterationCap
	return result, nil
}
