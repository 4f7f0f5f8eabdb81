// Package engine implements the provisioning sequencer: an ordered walk over
// the configured steps, skipping those whose precondition already holds,
// applying the rest, and falling back to a secondary action when the primary
// one fails. Execution is strictly sequential; a run is not transactional.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/model"
	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

// Execute runs the full step sequence in declared order and returns the run
// summary. The returned error is non-nil only when the run terminated at a
// fatal step; effects of earlier steps are left in place.
func Execute(execCtx *ExecutionContext) (*model.RunSummary, error) {
	if execCtx == nil || execCtx.Config == nil {
		return nil, vmseederrors.NewValidationError("engine", "execution context is incomplete", nil)
	}
	if execCtx.Registry == nil {
		return nil, vmseederrors.NewValidationError("engine", "plugin registry is nil", nil)
	}

	ctx := execCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if err := ValidateOrder(execCtx.Config.Steps); err != nil {
		return nil, err
	}

	enabled := make([]*config.Step, 0, len(execCtx.Config.Steps))
	for i := range execCtx.Config.Steps {
		if execCtx.Config.Steps[i].Enabled {
			enabled = append(enabled, &execCtx.Config.Steps[i])
		}
	}

	summary := &model.RunSummary{TotalSteps: len(enabled)}
	start := time.Now()

	for i, step := range enabled {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, vmseederrors.NewSubprocessError(step.ID, err)
		}

		res := executeStep(ctx, execCtx, step)
		summary.Record(res)

		if execCtx.OnResult != nil {
			execCtx.OnResult(i+1, len(enabled), res)
		}

		if res.Status == model.StatusFailed {
			summary.Duration = time.Since(start)
			err := res.Error
			if err == nil {
				err = fmt.Errorf("step failed")
			}
			return summary, vmseederrors.NewSubprocessError(step.ID, err)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func executeStep(ctx context.Context, execCtx *ExecutionContext, step *config.Step) model.StepResult {
	log := execCtx.Logger.WithFields(map[string]any{"step": step.ID, "type": step.Type})
	start := time.Now()

	finish := func(res model.StepResult) model.StepResult {
		res.StepID = step.ID
		res.Duration = time.Since(start)
		if res.Timestamp.IsZero() {
			res.Timestamp = time.Now()
		}
		log.WithFields(map[string]any{
			"status":   res.Status,
			"duration": res.Duration.String(),
		}).Info("step finished")
		return res
	}

	impl, err := execCtx.Registry.Get(step.Type)
	if err != nil {
		return finish(failureResult(execCtx, step, err))
	}

	evalResult, err := impl.Evaluate(ctx, step)
	if err != nil {
		log.Error(err, "precondition probe failed")
		return finish(failureResult(execCtx, step, err))
	}

	if evalResult.Satisfied {
		log.Debug("precondition already satisfied")
		return finish(model.StepResult{
			Status:  model.StatusSatisfied,
			Message: evalResult.Message,
		})
	}

	if execCtx.DryRun {
		return finish(model.StepResult{
			Status:  model.StatusWouldApply,
			Message: evalResult.Message,
			Diff:    evalResult.Diff,
		})
	}

	result, err := impl.Apply(ctx, evalResult, step)
	if err == nil {
		res := model.StepResult{Status: model.StatusApplied, Message: "applied"}
		if result != nil {
			if result.Message != "" {
				res.Message = result.Message
			}
			if result.Status != "" && result.Status != model.StatusFailed {
				res.Status = result.Status
			}
		}
		return finish(res)
	}

	log.Error(err, "primary action failed")

	if step.Fallback != nil {
		res, fbErr := executeFallback(ctx, execCtx, step)
		if fbErr == nil {
			return finish(res)
		}
		log.Error(fbErr, "fallback action failed")
		err = fmt.Errorf("primary: %w; fallback: %v", err, fbErr)
	}

	return finish(failureResult(execCtx, step, err))
}

func executeFallback(ctx context.Context, execCtx *ExecutionContext, step *config.Step) (model.StepResult, error) {
	// The fallback inherits the parent's identity so every log line and
	// result still names the step the operator configured.
	fb := *step.Fallback
	fb.ID = step.ID
	fb.Name = step.Name

	impl, err := execCtx.Registry.Get(fb.Type)
	if err != nil {
		return model.StepResult{}, err
	}

	// Fallbacks start from scratch: no evaluation result is carried over from
	// the failed primary action.
	result, err := impl.Apply(ctx, nil, &fb)
	if err != nil {
		return model.StepResult{}, err
	}

	res := model.StepResult{
		Status:  model.StatusAppliedFallback,
		Message: "applied via fallback",
	}
	if result != nil && result.Message != "" {
		res.Message = result.Message
	}
	return res, nil
}

func failureResult(execCtx *ExecutionContext, step *config.Step, err error) model.StepResult {
	tolerated := step.OnFailure == config.OnFailureTolerate || execCtx.ContinueOnError

	if tolerated {
		return model.StepResult{
			Status:  model.StatusWarning,
			Message: fmt.Sprintf("tolerated failure: %v", err),
			Error:   err,
		}
	}

	return model.StepResult{
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}
}
