// Package usergroupplugin ensures a user belongs to a system group, used to
// grant the provisioning user access to the Docker daemon socket. Membership
// takes effect on next login; the step only guarantees the group entry.
package usergroupplugin

import (
	"context"
	"fmt"
	"os/user"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
)

type userGroupPlugin struct {
	probes probe.Probe
	runner execx.Runner
}

// New creates a new usergroup plugin instance.
func New(probes probe.Probe, runner execx.Runner) plugin.Plugin {
	return &userGroupPlugin{probes: probes, runner: runner}
}

var _ plugin.Plugin = (*userGroupPlugin)(nil)

func (p *userGroupPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "usergroup",
		Description: "Ensures a user is a member of a system group.",
	}
}

func (p *userGroupPlugin) Schema() any {
	return config.UserGroupStep{}
}

func (p *userGroupPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.UserGroup
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("usergroup configuration missing"))
	}

	member, err := p.probes.UserInGroup(cfg.User, cfg.Group)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	who := cfg.User
	if who == "" {
		who = "current user"
	}

	if member {
		return &model.EvaluationResult{
			StepID:    step.ID,
			Satisfied: true,
			Message:   fmt.Sprintf("%s is already in group %s", who, cfg.Group),
		}, nil
	}

	return &model.EvaluationResult{
		StepID:    step.ID,
		Satisfied: false,
		Message:   fmt.Sprintf("%s is not in group %s", who, cfg.Group),
	}, nil
}

func (p *userGroupPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.UserGroup
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("usergroup configuration missing"))
	}

	username := cfg.User
	if username == "" {
		current, err := user.Current()
		if err != nil {
			return nil, plugin.NewExecutionError(step.ID, err)
		}
		username = current.Username
	}

	res, err := p.runner.Run(ctx, "usermod", "-aG", cfg.Group, username)
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
		Message: fmt.Sprintf("added %s to group %s", username, cfg.Group),
	}, nil
}
