package model

// EvaluationResult contains the result of probing a step's precondition
// against the live machine. It is returned by Plugin.Evaluate() and passed to
// Plugin.Apply() when the precondition does not hold.
type EvaluationResult struct {
	// StepID is the unique identifier of the evaluated step.
	StepID string

	// Satisfied reports whether the precondition already holds. When true the
	// engine skips the step's action entirely.
	Satisfied bool

	// Message is a human-readable description of what the probe found.
	Message string

	// Diff optionally shows what applying the step would change. Populated by
	// file-mutating steps for dry-run previews.
	Diff string

	// InternalData is opaque data passed from Evaluate() to Apply() to avoid
	// recomputation.
	InternalData any
}
