package engine

import (
	"context"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/logger"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
)

// ExecutionContext carries everything one run of the sequence needs. Exactly
// one run is active at a time; the sequencer is not designed for concurrent
// invocation on the same host.
type ExecutionContext struct {
	Config   *config.Config
	Registry *plugin.Registry
	Logger   *logger.Logger
	Context  context.Context

	// DryRun evaluates preconditions without mutating the machine.
	DryRun bool
	// ContinueOnError demotes every fatal policy to tolerate.
	ContinueOnError bool

	// OnResult, when set, is invoked with each step's outcome before the next
	// step starts. The index is the 1-based position in the sequence.
	OnResult func(index, total int, res model.StepResult)
}
