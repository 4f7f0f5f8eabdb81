package model

import (
	"time"
)

const (
	// StatusSatisfied indicates the step's precondition already held, so the
	// action was skipped.
	StatusSatisfied = "satisfied"
	// StatusApplied marks a step whose primary action completed.
	StatusApplied = "applied"
	// StatusAppliedFallback marks a step whose primary action failed but whose
	// fallback action completed.
	StatusAppliedFallback = "applied_fallback"
	// StatusWarning marks a tolerated failure: the step failed but the run
	// continued.
	StatusWarning = "warning"
	// StatusFailed marks a fatal failure during step execution.
	StatusFailed = "failed"
	// StatusWouldApply indicates dry-run determined the action would run.
	StatusWouldApply = "would_apply"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	StepID  string
	Status  string
	Message string
	// Diff previews the change a pending step would make. Populated only for
	// StatusWouldApply results, where no action ran.
	Diff      string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// Changed reports whether the step mutated the machine.
func (r StepResult) Changed() bool {
	return r.Status == StatusApplied || r.Status == StatusAppliedFallback
}
