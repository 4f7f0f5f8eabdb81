// Package repoplugin clones git repositories. It backs the nvm fallback: when
// the vendor install script is unreachable, cloning the nvm repository into
// ~/.nvm is the documented alternative install.
package repoplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
)

type repoPlugin struct{}

// New creates a new repository plugin.
func New() plugin.Plugin {
	return &repoPlugin{}
}

var _ plugin.Plugin = (*repoPlugin)(nil)

func (p *repoPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "repo",
		Description: "Clones git repositories.",
	}
}

func (p *repoPlugin) Schema() any {
	return config.RepoStep{}
}

type repoEvaluationData struct {
	destination  string
	dirExists    bool
	isGitRepo    bool
	cloneOptions *git.CloneOptions
}

func (p *repoPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Repo
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("repo configuration missing"))
	}

	destination, err := probe.ExpandPath(cfg.Destination)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	dirExists := true
	if _, err := os.Stat(destination); err != nil {
		if !os.IsNotExist(err) {
			return nil, plugin.NewStateError(step.ID, fmt.Errorf("cannot access destination: %w", err))
		}
		dirExists = false
	}

	isGitRepo := false
	if dirExists {
		if _, err := git.PlainOpen(destination); err == nil {
			isGitRepo = true
		}
	}

	cloneOpts := &git.CloneOptions{URL: cfg.URL}
	if cfg.Depth > 0 {
		cloneOpts.Depth = cfg.Depth
	}
	if cfg.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		cloneOpts.SingleBranch = true
	}

	data := &repoEvaluationData{
		destination:  destination,
		dirExists:    dirExists,
		isGitRepo:    isGitRepo,
		cloneOptions: cloneOpts,
	}

	if isGitRepo {
		return &model.EvaluationResult{
			StepID:       step.ID,
			Satisfied:    true,
			Message:      fmt.Sprintf("git repository exists at %s", destination),
			InternalData: data,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:       step.ID,
		Satisfied:    false,
		Message:      fmt.Sprintf("no git repository at %s", destination),
		Diff:         fmt.Sprintf("Would clone: %s", cfg.URL),
		InternalData: data,
	}, nil
}

func (p *repoPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Repo
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("repo configuration missing"))
	}

	var data *repoEvaluationData
	if evalResult != nil {
		if typed, ok := evalResult.InternalData.(*repoEvaluationData); ok {
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
		data = eval.InternalData.(*repoEvaluationData)
	}

	if err := os.MkdirAll(filepath.Dir(data.destination), 0o755); err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}

	// A directory that exists but is not a repository would make the clone
	// fail; clear it first.
	if data.dirExists && !data.isGitRepo {
		if err := os.RemoveAll(data.destination); err != nil {
			return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("failed to remove existing directory: %w", err))
		}
	}

	if _, err := git.PlainCloneContext(ctx, data.destination, false, data.cloneOptions); err != nil {
		return &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusFailed,
			Message: fmt.Sprintf("failed to clone repository: %v", err),
			Error:   err,
		}, plugin.NewExecutionError(step.ID, fmt.Errorf("failed to clone repository: %w", err))
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusApplied,
		Message: fmt.Sprintf("cloned %s into %s", cfg.URL, data.destination),
	}, nil
}
