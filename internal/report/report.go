// Package report collects what the suite swallowed or explored during a run
// (cleanup failures, onboarding traversals) and writes it as a YAML artifact.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/medara-io/medara-e2e/internal/pages"
)

// CleanupFailure is one account the suite could not delete.
type CleanupFailure struct {
	Email string `yaml:"email"`
	Error string `yaml:"error"`
}

// OnboardingRun is one exploratory traversal of the wizard.
type OnboardingRun struct {
	Scenario    string            `yaml:"scenario"`
	Iterations  int               `yaml:"iterations"`
	Finished    bool              `yaml:"finished"`
	Termination pages.Termination `yaml:"termination"`
	Steps       []pages.StepTrace `yaml:"steps"`
}

// Report is safe for concurrent use.
type Report struct {
	mu              sync.Mutex
	environment     string
	started         time.Time
	cleanupFailures []CleanupFailure
	onboarding      []OnboardingRun
}

type document struct {
	Environment     string           `yaml:"environment"`
	StartedAt       time.Time        `yaml:"started_at"`
	FinishedAt      time.Time        `yaml:"finished_at"`
	CleanupFailures []CleanupFailure `yaml:"cleanup_failures,omitempty"`
	Onboarding      []OnboardingRun  `yaml:"onboarding,omitempty"`
}

// New starts a report for the named environment.
func New(environment string) *Report {
	return &Report{environment: environment, started: time.Now().UTC()}
}

// RecordCleanupFailure notes an account that was left behind.
func (r *Report) RecordCleanupFailure(email string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupFailures = append(r.cleanupFailures, CleanupFailure{Email: email, Error: msg})
}

// RecordOnboarding stores the trace of a traversal.
func (r *Report) RecordOnboarding(scenario string, result pages.OnboardingResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onboarding = append(r.onboarding, OnboardingRun{
		Scenario:    scenario,
		Iterations:  result.Iterations(),
		Finished:    result.Finished(),
		Termination: result.Termination,
		Steps:       result.Steps,
	})
}

// CleanupFailures returns a copy of the recorded failures.
func (r *Report) CleanupFailures() []CleanupFailure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CleanupFailure(nil), r.cleanupFailures...)
}

// Empty reports whether nothing has been recorded.
func (r *Report) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cleanupFailures) == 0 && len(r.onboarding) == 0
}

// Marshal renders the report. Entries are sorted so the output does not
// depend on scenario scheduling.
func (r *Report) Marshal() ([]byte, error) {
	r.mu.Lock()
	doc := document{
		Environment:     r.environment,
		StartedAt:       r.started,
		FinishedAt:      time.Now().UTC(),
		CleanupFailures: append([]CleanupFailure(nil), r.cleanupFailures...),
		Onboarding:      append([]OnboardingRun(nil), r.onboarding...),
	}
	r.mu.Unlock()

	sort.SliceStable(doc.CleanupFailures, func(i, j int) bool {
		return doc.CleanupFailures[i].Email < doc.CleanupFailures[j].Email
	})
	sort.SliceStable(doc.Onboarding, func(i, j int) bool {
		return doc.Onboarding[i].Scenario < doc.Onboarding[j].Scenario
	})

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return out, nil
}

// Write saves the report to path, creating parent directories.
func (r *Report) Write(path string) error {
	out, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
