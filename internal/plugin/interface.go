package plugin

import (
	"context"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/model"
)

// Metadata describes a step-type implementation for registration and
// discovery.
type Metadata struct {
	// Type is the step type this plugin implements, matched against
	// config.Step.Type.
	Type string

	// Description is a short human-readable summary of what the plugin does.
	Description string
}

// Plugin is the contract every step type satisfies.
//
// Evaluate probes the live machine for the step's precondition and MUST NOT
// mutate any state. Apply mutates the machine toward the desired state and is
// only called when Evaluate reported the precondition unsatisfied; it must be
// idempotent.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata

	// Schema returns the struct describing the plugin's YAML configuration.
	Schema() any

	// Evaluate performs a strictly read-only assessment of whether the step's
	// precondition already holds. Probes run fresh on every call; results are
	// never cached across runs.
	Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error)

	// Apply mutates the system so the step's precondition becomes true. The
	// evalResult parameter carries the result of the preceding Evaluate call,
	// including InternalData to avoid recomputation; implementations must
	// tolerate a nil evalResult by re-evaluating, since fallback execution
	// starts from scratch.
	Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error)
}
