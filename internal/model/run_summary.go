package model

import (
	"fmt"
	"time"
)

// RunSummary aggregates the outcome of one end-to-end run of the step
// sequence. A run is not transactional: effects of steps completed before a
// fatal failure are left in place.
type RunSummary struct {
	TotalSteps int
	Satisfied  int
	Applied    int
	Fallback   int
	Warnings   int
	WouldApply int
	FailedStep string
	Duration   time.Duration
	Results    []StepResult
}

// Record folds a step result into the summary counters.
func (s *RunSummary) Record(res StepResult) {
	s.Results = append(s.Results, res)
	switch res.Status {
	case StatusSatisfied:
		s.Satisfied++
	case StatusApplied:
		s.Applied++
	case StatusAppliedFallback:
		s.Fallback++
	case StatusWarning:
		s.Warnings++
	case StatusWouldApply:
		s.WouldApply++
	case StatusFailed:
		s.FailedStep = res.StepID
	}
}

// Success reports whether the run completed without a fatal failure.
func (s *RunSummary) Success() bool {
	return s.FailedStep == ""
}

// Status renders the terminal status of the run.
func (s *RunSummary) Status() string {
	if s.FailedStep != "" {
		return fmt.Sprintf("failed-at-step(%s)", s.FailedStep)
	}
	return "success"
}
