package engine

import (
	"fmt"

	"github.com/vmseed/vmseed/internal/config"
	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

// ValidateOrder enforces the sequencer's ordering invariant: every depends_on
// reference must name a step that appears earlier in the list. Because
// execution is strictly sequential, an earlier position guarantees the
// dependency's precondition has been made true (or the run has already
// aborted) before the dependent step's action runs. An enabled step may not
// depend on a disabled one; the dependency would never run.
func ValidateOrder(steps []config.Step) error {
	seen := make(map[string]bool, len(steps))

	for i, step := range steps {
		for _, dep := range step.DependsOn {
			enabled, ok := seen[dep]
			if !ok {
				return vmseederrors.NewValidationError(
					fmt.Sprintf("steps[%d].depends_on", i),
					fmt.Sprintf("step %q depends on %q which does not appear earlier in the sequence", step.ID, dep),
					nil,
				)
			}
			if step.Enabled && !enabled {
				return vmseederrors.NewValidationError(
					fmt.Sprintf("steps[%d].depends_on", i),
					fmt.Sprintf("step %q depends on %q which is disabled", step.ID, dep),
					nil,
				)
			}
		}
		seen[step.ID] = step.Enabled
	}

	return nil
}
