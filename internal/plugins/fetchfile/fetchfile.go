// Package fetchfileplugin replaces a local configuration file with content
// fetched from a fixed remote location. The existing file is backed up at
// most once per calendar day so repeated runs never pile up backups, and a
// failed or invalid fetch leaves the local file untouched.
package fetchfileplugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
	"github.com/vmseed/vmseed/pkg/diff"
)

// FileFetcher retrieves a remote file, validating the content.
type FileFetcher interface {
	File(ctx context.Context, url string) ([]byte, error)
}

// Clock abstracts "today" so the daily backup bound is testable.
type Clock func() time.Time

type fetchFilePlugin struct {
	fetcher FileFetcher
	now     Clock
}

// New creates a new fetchfile plugin instance.
func New(fetcher FileFetcher) plugin.Plugin {
	return &fetchFilePlugin{fetcher: fetcher, now: time.Now}
}

// NewWithClock creates a fetchfile plugin with a fixed clock, for tests.
func NewWithClock(fetcher FileFetcher, now Clock) plugin.Plugin {
	return &fetchFilePlugin{fetcher: fetcher, now: now}
}

var _ plugin.Plugin = (*fetchFilePlugin)(nil)

func (p *fetchFilePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Type:        "fetchfile",
		Description: "Replaces a local file with content fetched from a fixed URL.",
	}
}

func (p *fetchFilePlugin) Schema() any {
	return config.FetchFileStep{}
}

type fetchEvaluationData struct {
	destination string
	current     []byte
	exists      bool
	fetched     []byte
}

// Evaluate fetches the remote content and compares it to the local file. The
// fetch itself is read-only with respect to the machine; failure to fetch is
// a state error because the desired state cannot be determined without it.
func (p *fetchFilePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.FetchFile
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("fetchfile configuration missing"))
	}

	fetched, err := p.fetcher.File(ctx, cfg.URL)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	destination, err := probe.ExpandPath(cfg.Destination)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	current, err := os.ReadFile(destination)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, plugin.NewStateError(step.ID, err)
	}

	data := &fetchEvaluationData{
		destination: destination,
		current:     current,
		exists:      exists,
		fetched:     fetched,
	}

	if exists && bytes.Equal(current, fetched) {
		return &model.EvaluationResult{
			StepID:       step.ID,
			Satisfied:    true,
			Message:      fmt.Sprintf("%s already matches %s", destination, cfg.URL),
			InternalData: data,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:       step.ID,
		Satisfied:    false,
		Message:      fmt.Sprintf("%s differs from %s", destination, cfg.URL),
		Diff:         diff.Unified(current, fetched, destination, cfg.URL),
		InternalData: data,
	}, nil
}

func (p *fetchFilePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.FetchFile
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("fetchfile configuration missing"))
	}

	var data *fetchEvaluationData
	if evalResult != nil {
		if typed, ok := evalResult.InternalData.(*fetchEvaluationData); ok {
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
		data = eval.InternalData.(*fetchEvaluationData)
	}

	backedUp := false
	if cfg.Backup && data.exists {
		created, err := p.backupDaily(data.destination, data.current)
		if err != nil {
			return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("backup failed: %w", err))
		}
		backedUp = created
	}

	if err := os.MkdirAll(filepath.Dir(data.destination), 0o755); err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}
	if err := os.WriteFile(data.destination, data.fetched, 0o644); err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}

	msg := fmt.Sprintf("replaced %s with content from %s", data.destination, cfg.URL)
	if backedUp {
		msg += " (previous content backed up)"
	}
	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusApplied,
		Message: msg,
	}, nil
}

// backupDaily writes <file>.bak.YYYY-MM-DD beside the original. If today's
// backup already exists, nothing is written: at most one backup per calendar
// day regardless of how many runs replace the file.
func (p *fetchFilePlugin) backupDaily(path string, content []byte) (bool, error) {
	day := p.now().Format("2006-01-02")
	backupPath := fmt.Sprintf("%s.bak.%s", path, day)

	if _, err := os.Stat(backupPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
