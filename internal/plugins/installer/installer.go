// Package installerplugin runs vendor-hosted install scripts. The fetched
// body is content-checked before it is ever handed to a shell: a transport
// that "succeeds" with an HTML error page counts as a fetch failure, which is
// what lets the engine select the step's package-manager fallback instead of
// executing garbage.
package installerplugin

import (
	"context"
	"fmt"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
)

// ScriptFetcher retrieves a remote installer script, validating the content.
type ScriptFetcher interface {
	Script(ctx context.Context, url string) ([]byte, error)
}

type installerPlugin struct {
	probes  probe.Probe
	runner  execx.Runner
	fetcher ScriptFetcher
}

// New creates a new installer plugin instance.
func New(probes probe.Probe, runner execx.Runner, fetcher ScriptFetcher) plugin.Plugin {
	return &installerPlugin{probes: probes, runner: runner, fetcher: fetcher}
}

var _ plugin.Plugin = (*installerPlugin)(nil)

func (p *installerPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "installer",
		Description: "Fetches a vendor install script and pipes it through a shell.",
	}
}

func (p *installerPlugin) Schema() any {
	return config.InstallerStep{}
}

// Evaluate probes for the binary or file the installer is expected to leave
// behind.
func (p *installerPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Installer
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("installer configuration missing"))
	}

	if cfg.CheckCommand != "" && p.probes.CommandExists(cfg.CheckCommand) {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: true,
			Message:   fmt.Sprintf("%s is already on PATH", cfg.CheckCommand),
		}, nil
	}

	if cfg.CheckFile != "" && p.probes.FileExists(cfg.CheckFile) {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: true,
			Message:   fmt.Sprintf("%s already exists", cfg.CheckFile),
		}, nil
	}

	target := cfg.CheckCommand
	if target == "" {
		target = cfg.CheckFile
	}
	return &model.EvaluationResult{
		StepID:    step.ID,
		Satisfied: false,
		Message:   fmt.Sprintf("%s not present, installer required", target),
	}, nil
}

func (p *installerPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Installer
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("installer configuration missing"))
	}

	script, err := p.fetcher.Script(ctx, cfg.URL)
	if err != nil {
		return &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusFailed,
			Message: err.Error(),
			Error:   err,
		}, plugin.NewExecutionError(step.ID, err)
	}

	res, err := p.runner.RunShell(ctx, string(script), execx.ShellOptions{Shell: cfg.Shell})
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
		Message: fmt.Sprintf("installer from %s completed", cfg.URL),
	}, nil
}
