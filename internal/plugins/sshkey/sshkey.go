// Package sshkeyplugin generates an SSH key pair via ssh-keygen when none
// exists. Key generation itself is delegated entirely to the system utility.
package sshkeyplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
)

const defaultKeyType = "ed25519"

type sshKeyPlugin struct {
	probes probe.Probe
	runner execx.Runner
}

// New creates a new sshkey plugin instance.
func New(probes probe.Probe, runner execx.Runner) plugin.Plugin {
	return &sshKeyPlugin{probes: probes, runner: runner}
}

var _ plugin.Plugin = (*sshKeyPlugin)(nil)

func (p *sshKeyPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "sshkey",
		Description: "Generates an SSH key pair when the private key is missing.",
	}
}

func (p *sshKeyPlugin) Schema() any {
	return config.SSHKeyStep{}
}

func (p *sshKeyPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.SSHKey
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("sshkey configuration missing"))
	}

	if p.probes.FileExists(cfg.Path) {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: true,
			Message:   fmt.Sprintf("key %s already exists", cfg.Path),
		}, nil
	}

	return &model.EvaluationResult{
		StepID:    step.ID,
		Satisfied: false,
		Message:   fmt.Sprintf("key %s missing", cfg.Path),
	}, nil
}

func (p *sshKeyPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.SSHKey
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("sshkey configuration missing"))
	}

	path, err := probe.ExpandPath(cfg.Path)
	if err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}

	keyType := cfg.KeyType
	if keyType == "" {
		keyType = defaultKeyType
	}

	args := []string{"-t", keyType, "-f", path, "-N", ""}
	if cfg.Comment != "" {
		args = append(args, "-C", cfg.Comment)
	}

	res, err := p.runner.Run(ctx, "ssh-keygen", args...)
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
		Message: fmt.Sprintf("generated %s key at %s", keyType, path),
	}, nil
}
