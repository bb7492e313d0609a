package pages

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	radios     = "css:.MuiRadio-root|role:radio:"
	checkboxes = "css:.MuiCheckbox-root|role:checkbox:"
	textInputs = `css:input[type="text"]`
)

func threeStepWizard() *fakeWizard {
	return &fakeWizard{steps: []wizardStep{
		{radios: 3, next: true},
		{checkboxes: 4, next: true},
		{texts: 1, finish: true},
	}}
}

func TestCompleteOnboardingThreeSteps(t *testing.T) {
	b := &fakeBrowser{wizard: threeStepWizard()}
	onboarding := NewOnboardingPage(newFakePage(b), WithLogger(zaptest.NewLogger(t)))

	result, err := onboarding.CompleteOnboarding()

	require.NoError(t, err)
	assert.Equal(t, 4, result.Iterations(), "three real steps plus one no-op iteration")
	assert.Equal(t, TerminatedNoAdvance, result.Termination)
	assert.True(t, result.Finished())
	assert.Empty(t, result.Failures())

	assert.Equal(t, []string{"single-select"}, result.Steps[0].Handled())
	assert.Equal(t, AdvanceNext, result.Steps[0].Advance)
	assert.Equal(t, []string{"multi-select"}, result.Steps[1].Handled())
	assert.Equal(t, []string{"text"}, result.Steps[2].Handled())
	assert.Equal(t, AdvanceFinish, result.Steps[2].Advance)

	last := result.Steps[3]
	assert.Equal(t, AdvanceNone, last.Advance)
	require.Len(t, last.Probes, 3)
	for _, p := range last.Probes {
		assert.Equal(t, ProbeNotApplicable, p.Outcome, p.Probe)
	}

	assert.Equal(t, []string{
		"click role:button:(?i)get started|resume",
		"click " + radios + "#0",
		"click role:button:(?i)next",
		"click " + checkboxes + "#0",
		"click " + checkboxes + "#1",
		"click role:button:(?i)next",
		"fill " + textInputs + "#0=Test input 2",
		"click role:button:(?i)finish|complete",
	}, b.actions)

	advance := "role:button:(?i)next|role:button:(?i)finish|complete#0 timeout=2000"
	assert.Equal(t, []string{advance, advance, advance, advance}, b.waits, "one bounded wait per iteration")
}

func TestCompleteOnboardingMixedStep(t *testing.T) {
	b := &fakeBrowser{wizard: &fakeWizard{steps: []wizardStep{
		{radios: 2, texts: 1, finish: true},
	}}}

	result, err := NewOnboardingPage(newFakePage(b)).CompleteOnboarding()

	require.NoError(t, err)
	assert.Equal(t, TerminatedNoAdvance, result.Termination)
	assert.Equal(t, []string{"single-select", "text"}, result.Steps[0].Handled())
	require.Len(t, result.Steps[0].Probes, 3)
	assert.Equal(t, ProbeNotApplicable, result.Steps[0].Probes[1].Outcome)
	assert.Equal(t, []string{
		"click role:button:(?i)get started|resume",
		"click " + radios + "#0",
		"fill " + textInputs + "#0=Test input 0",
		"click role:button:(?i)finish|complete",
	}, b.actions)
}

func TestCompleteOnboardingStepWait(t *testing.T) {
	b := &fakeBrowser{wizard: &fakeWizard{steps: []wizardStep{{texts: 1, finish: true}}}}

	_, err := NewOnboardingPage(newFakePage(b), WithStepWait(250*time.Millisecond)).CompleteOnboarding()

	require.NoError(t, err)
	require.NotEmpty(t, b.waits)
	assert.Contains(t, b.waits[0], "timeout=250")
}

func TestCompleteOnboardingIterationCap(t *testing.T) {
	steps := make([]wizardStep, 8)
	for i := range steps {
		steps[i] = wizardStep{radios: 1, next: true, finish: true}
	}
	b := &fakeBrowser{wizard: &fakeWizard{steps: steps}}

	result, err := NewOnboardingPage(newFakePage(b)).CompleteOnboarding()

	require.NoError(t, err)
	assert.Equal(t, MaxOnboardingSteps, result.Iterations())
	assert.Equal(t, TerminatedIterationCap, result.Termination)
	assert.Equal(t, AdvanceNext, result.Steps[3].Advance)
	assert.Equal(t, AdvanceFinish, result.Steps[4].Advance, "final iteration uses finish")
}

func TestCompleteOnboardingFinalIterationIgnoresNext(t *testing.T) {
	b := &fakeBrowser{wizard: &fakeWizard{steps: []wizardStep{
		{radios: 1, next: true},
		{radios: 1, next: true},
		{radios: 1, next: true},
	}}}

	result, err := NewOnboardingPage(newFakePage(b), WithMaxSteps(2)).CompleteOnboarding()

	require.NoError(t, err)
	assert.Equal(t, 2, result.Iterations())
	assert.Equal(t, TerminatedNoAdvance, result.Termination)
	assert.False(t, result.Finished())
}

func TestCompleteOnboardingProbeFailure(t *testing.T) {
	boom := errors.New("element intercepts pointer events")

	t.Run("recorded and skipped", func(t *testing.T) {
		b := &fakeBrowser{wizard: threeStepWizard(), failOn: map[string]error{radios: boom}}

		result, err := NewOnboardingPage(newFakePage(b)).CompleteOnboarding()

		require.NoError(t, err)
		failures := result.Failures()
		require.Len(t, failures, 1)
		assert.Equal(t, "single-select", failures[0].Probe)
		assert.Contains(t, failures[0].Error, "pointer events")
		assert.Empty(t, result.Steps[0].Handled())
		assert.Equal(t, AdvanceNext, result.Steps[0].Advance)
	})

	t.Run("strict mode fails", func(t *testing.T) {
		b := &fakeBrowser{wizard: threeStepWizard(), failOn: map[string]error{radios: boom}}

		result, err := NewOnboardingPage(newFakePage(b), WithStrictProbes()).CompleteOnboarding()

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, result.Iterations())
	})
}

func TestCompleteOnboardingRequiresStart(t *testing.T) {
	w := threeStepWizard()
	w.started = true
	w.done = true
	b := &fakeBrowser{wizard: w}

	_, err := NewOnboardingPage(newFakePage(b)).CompleteOnboarding()

	require.Error(t, err)
	assert.ErrorIs(t, err, errNotActionable)
}

func TestOnboardingPrimitives(t *testing.T) {
	b := &fakeBrowser{wizard: &fakeWizard{steps: []wizardStep{{checkboxes: 1, next: true}}}}
	onboarding := NewOnboardingPage(newFakePage(b))

	require.NoError(t, onboarding.Goto())
	require.NoError(t, onboarding.StartOnboarding())
	require.NoError(t, onboarding.SelectMultipleOptions(0, 1, 2))
	assert.Error(t, onboarding.SelectSingleOption(0))
	require.NoError(t, onboarding.ClickNext())
	assert.Error(t, onboarding.ClickFinish())

	assert.Equal(t, []string{
		"goto /portal/onboarding",
		"click role:button:(?i)get started|resume",
		"click " + checkboxes + "#0",
		"click role:button:(?i)next",
	}, b.actions)
}

func TestResumeButtonExcludesFirstVisit(t *testing.T) {
	onboarding := NewOnboardingPage(newFakePage(&fakeBrowser{}))

	assert.Equal(t, "role:button:(?i)resume", onboarding.ResumeButton().(*fakeLocator).desc)
	assert.Equal(t, "role:button:(?i)get started|resume", onboarding.StartButton().(*fakeLocator).desc)
	assert.Equal(t, `text:(?i)step \d+`, onboarding.StepIndicator.(*fakeLocator).desc)
}

func TestTraverse(t *testing.T) {
	notApplicable := Probe{Name: "none", Run: func(int) (ProbeOutcome, error) { return ProbeNotApplicable, nil }}

	t.Run("no advance on first step", func(t *testing.T) {
		result, err := traverse([]Probe{notApplicable}, nil, func(int, bool) (AdvanceKind, error) {
			return AdvanceNone, nil
		}, 5, false, zap.NewNop())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Iterations())
		assert.Equal(t, TerminatedNoAdvance, result.Termination)
	})

	t.Run("every probe runs on every step", func(t *testing.T) {
		calls := 0
		counting := Probe{Name: "counting", Run: func(int) (ProbeOutcome, error) { calls++; return ProbeNotApplicable, nil }}
		handled := Probe{Name: "handled", Run: func(int) (ProbeOutcome, error) { return ProbeHandled, nil }}
		var awaited []int

		result, err := traverse([]Probe{handled, counting}, func(step int) {
			awaited = append(awaited, step)
		}, func(step int, _ bool) (AdvanceKind, error) {
			if step == 2 {
				return AdvanceNone, nil
			}
			return AdvanceNext, nil
		}, 5, false, zap.NewNop())

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{0, 1, 2}, awaited)
		assert.Equal(t, 3, result.Iterations())
		for _, step := range result.Steps {
			assert.Equal(t, []string{"handled"}, step.Handled())
			assert.Len(t, step.Probes, 2)
		}
	})

	t.Run("advance error propagates", func(t *testing.T) {
		boom := errors.New("detached")
		_, err := traverse([]Probe{notApplicable}, nil, func(int, bool) (AdvanceKind, error) {
			return AdvanceNext, boom
		}, 5, false, zap.NewNop())

		assert.ErrorIs(t, err, boom)
	})
}

func TestProbeOutcomeText(t *testing.T) {
	text, err := ProbeFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(text))
	assert.Equal(t, "not-applicable", ProbeNotApplicable.String())
	assert.Equal(t, "handled", ProbeHandled.String())
}
