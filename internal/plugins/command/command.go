package commandplugin

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
)

type commandPlugin struct {
	runner execx.Runner
}

// New creates a new command plugin instance.
func New(runner execx.Runner) plugin.Plugin {
	return &commandPlugin{runner: runner}
}

var _ plugin.Plugin = (*commandPlugin)(nil)

func (p *commandPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "command",
		Description: "Executes shell commands with an optional check command as precondition.",
	}
}

func (p *commandPlugin) Schema() any {
	return config.CommandStep{}
}

// Evaluate runs the step's check command. Exit 0 means the precondition
// holds; a non-zero exit means the action is needed. No check command means
// the action always runs.
func (p *commandPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Command
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("command configuration missing"))
	}

	if strings.TrimSpace(cfg.Check) == "" {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: false,
			Message:   "no check command, action always runs",
		}, nil
	}

	checkOpts := shellOptions(cfg)
	checkOpts.Quiet = true
	res, err := p.runner.RunShell(ctx, cfg.Check, checkOpts)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || res.ExitCode > 0 {
			return &model.EvaluationResult{
				StepID:    step.ID,
				Satisfied: false,
				Message:   fmt.Sprintf("check command exited %d", res.ExitCode),
			}, nil
		}
		return nil, plugin.NewStateError(step.ID, err)
	}

	return &model.EvaluationResult{
		StepID:    step.ID,
		Satisfied: true,
		Message:   "check command succeeded",
	}, nil
}

func (p *commandPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Command
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("command configuration missing"))
	}

	res, err := p.runner.RunShell(ctx, cfg.Command, shellOptions(cfg))
	if err != nil {
		if out := res.PrimaryOutput(); out != "" {
			err = fmt.Errorf("%w: %s", err, out)
		}
		return &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusFailed,
			Message: err.Error(),
			Error:   err,
		}, plugin.NewExecutionError(step.ID, err)
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusApplied,
		Message: "command executed",
	}, nil
}

func shellOptions(cfg *config.CommandStep) execx.ShellOptions {
	return execx.ShellOptions{
		Shell:   cfg.Shell,
		WorkDir: cfg.WorkDir,
		Env:     cfg.Env,
	}
}
