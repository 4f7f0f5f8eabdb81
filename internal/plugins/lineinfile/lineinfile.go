// Package lineinfileplugin ensures literal lines are present in a file,
// creating it when missing. It backs the sshd keepalive step and the
// system-wide nvm profile snippet; the idempotency pre-check is the file
// already containing every requested line.
package lineinfileplugin

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/pkg/diff"
	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

type lineInFilePlugin struct {
	runner execx.Runner
}

// New creates a new lineinfile plugin instance.
func New(runner execx.Runner) plugin.Plugin {
	return &lineInFilePlugin{runner: runner}
}

var _ plugin.Plugin = (*lineInFilePlugin)(nil)

func (p *lineInFilePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "lineinfile",
		Description: "Ensures literal lines are present in a file.",
	}
}

func (p *lineInFilePlugin) Schema() any {
	return config.LineInFileStep{}
}

type lineEvaluationData struct {
	state        *fileState
	missingLines []string
	desired      string
}

func (p *lineInFilePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.LineInFile
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("lineinfile configuration missing"))
	}

	state, err := readFileState(cfg.File)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	var missing []string
	for _, line := range cfg.Lines {
		if !containsLine(state.lines, line) {
			missing = append(missing, line)
		}
	}

	if len(missing) == 0 {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: true,
			Message:   fmt.Sprintf("%s already contains all %d lines", state.path, len(cfg.Lines)),
		}, nil
	}

	desired := desiredContent(state, missing)
	data := &lineEvaluationData{state: state, missingLines: missing, desired: desired}

	return &model.EvaluationResult{
		StepID:       step.ID,
		Satisfied:    false,
		Message:      fmt.Sprintf("%s is missing %d line(s)", state.path, len(missing)),
		Diff:         diff.Unified([]byte(state.content), []byte(desired), state.path, state.path+" (desired)"),
		InternalData: data,
	}, nil
}

func (p *lineInFilePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.LineInFile
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("lineinfile configuration missing"))
	}

	var data *lineEvaluationData
	if evalResult != nil {
		if typed, ok := evalResult.InternalData.(*lineEvaluationData); ok {
			data = typed
		}
	}
	if data == nil {
		eval, err := p.Evaluate(ctx, step)
		if err != nil {
			return nil, err
		}
		if eval.Satisfied {
			return &model.StepResult{
				StepID:  step.ID,
				Status:  model.StatusSatisfied,
				Message: "no changes needed",
			}, nil
		}
		data = eval.InternalData.(*lineEvaluationData)
	}

	perm := data.state.permissions
	if cfg.Mode != "" {
		parsed, err := strconv.ParseUint(cfg.Mode, 8, 32)
		if err != nil {
			return nil, plugin.NewValidationError(step.ID, fmt.Errorf("invalid mode %q: %w", cfg.Mode, err))
		}
		perm = os.FileMode(parsed)
	}

	if cfg.Backup && data.state.exists {
		if _, err := createBackup(data.state.path, []byte(data.state.content), perm); err != nil {
			return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("backup failed: %w", err))
		}
	}

	if err := writeFileAtomic(data.state.path, []byte(data.desired), perm); err != nil {
		if os.IsPermission(err) {
			err = vmseederrors.NewPermissionError("write "+data.state.path, err)
		}
		return failedResult(step.ID, err), plugin.NewExecutionError(step.ID, err)
	}

	if strings.TrimSpace(cfg.OnChange) != "" {
		if res, err := p.runner.RunShell(ctx, cfg.OnChange, execx.ShellOptions{}); err != nil {
			err = fmt.Errorf("on_change command failed: %w", err)
			if out := res.PrimaryOutput(); out != "" {
				err = fmt.Errorf("%w: %s", err, out)
			}
			return failedResult(step.ID, err), plugin.NewExecutionError(step.ID, err)
		}
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusApplied,
		Message: fmt.Sprintf("added %d line(s) to %s", len(data.missingLines), data.state.path),
	}, nil
}

func containsLine(lines []string, line string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == strings.TrimSpace(line) {
			return true
		}
	}
	return false
}

func desiredContent(state *fileState, missing []string) string {
	lines := append([]string{}, state.lines...)
	lines = append(lines, missing...)
	return strings.Join(lines, "\n") + "\n"
}

func failedResult(stepID string, err error) *model.StepResult {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}
}
