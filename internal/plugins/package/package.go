package packageplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
)

type packagePlugin struct {
	runner execx.Runner
}

// New creates a new package plugin instance.
func New(runner execx.Runner) plugin.Plugin {
	return &packagePlugin{runner: runner}
}

var _ plugin.Plugin = (*packagePlugin)(nil)

func (p *packagePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "package",
		Description: "Installs system packages through apt.",
	}
}

func (p *packagePlugin) Schema() any {
	return config.PackageStep{}
}

// packageEvaluationData carries the dpkg query outcome from Evaluate to Apply.
type packageEvaluationData struct {
	MissingPackages []string
}

// Evaluate queries dpkg for each requested package. The query is read-only;
// installation state is re-checked on every run.
func (p *packagePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Package
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("package configuration missing"))
	}

	var missing []string
	for _, name := range cfg.Packages {
		res, err := p.runner.RunQuiet(ctx, "dpkg-query", "-W", "-f=${Status}", name)
		if err != nil || !strings.Contains(res.Stdout, "install ok installed") {
			missing = append(missing, name)
		}
	}

	data := &packageEvaluationData{MissingPackages: missing}

	if len(missing) == 0 {
		return &model.EvaluationResult{
			StepID:       step.ID,
			Satisfied:    true,
			Message:      fmt.Sprintf("all packages installed: %s", strings.Join(cfg.Packages, ", ")),
			InternalData: data,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:       step.ID,
		Satisfied:    false,
		Message:      fmt.Sprintf("packages not installed: %s", strings.Join(missing, ", ")),
		Diff:         fmt.Sprintf("Would install: %s", strings.Join(missing, ", ")),
		InternalData: data,
	}, nil
}

func (p *packagePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Package
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("package configuration missing"))
	}

	var data *packageEvaluationData
	if evalResult != nil {
		if typed, ok := evalResult.InternalData.(*packageEvaluationData); ok {
			data = typed
		}
	}
	if data == nil {
		// Fallback execution arrives without an evaluation; probe fresh.
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
		data = eval.InternalData.(*packageEvaluationData)
	}

	if cfg.Update {
		if err := p.run(ctx, step.ID, "update"); err != nil {
			return failed(step.ID, err), err
		}
	}

	if len(data.MissingPackages) > 0 {
		args := append([]string{"install", "-y"}, data.MissingPackages...)
		if err := p.run(ctx, step.ID, args...); err != nil {
			return failed(step.ID, err), err
		}
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusApplied,
		Message: fmt.Sprintf("installed packages: %s", strings.Join(data.MissingPackages, ", ")),
	}, nil
}

func (p *packagePlugin) run(ctx context.Context, stepID string, args ...string) error {
	res, err := p.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		if out := res.PrimaryOutput(); out != "" {
			err = fmt.Errorf("%w: %s", err, out)
		}
		return plugin.NewExecutionError(stepID, fmt.Errorf("apt-get %s: %w", args[0], err))
	}
	return nil
}

func failed(stepID string, err error) *model.StepResult {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}
}
