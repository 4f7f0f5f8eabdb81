package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/logger"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
)

// fixedPlugin answers for the "command" step type with a scripted
// satisfied/unsatisfied state and records Apply calls.
type fixedPlugin struct {
	satisfied  bool
	applyCount int
}

func (p *fixedPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Type: "command"}
}

func (p *fixedPlugin) Schema() any { return nil }

func (p *fixedPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	res := &model.EvaluationResult{StepID: step.ID, Satisfied: p.satisfied, Message: "scripted"}
	if !p.satisfied {
		res.Diff = "+ run " + step.ID
	}
	return res, nil
}

func (p *fixedPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	p.applyCount++
	return &model.StepResult{StepID: step.ID, Status: model.StatusApplied}, nil
}

func testRegistry(t *testing.T, p plugin.Plugin) *plugin.Registry {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error", Writer: io.Discard})
	require.NoError(t, err)

	reg := plugin.NewRegistry(log)
	require.NoError(t, reg.Register(p))
	return reg
}

func writeSequence(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	contents := `version: "1.0"
name: "test sequence"
steps:
  - id: first
    type: command
    command: "echo one"
  - id: second
    type: command
    command: "echo two"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestBareInvocationProvisionsWithDryRun(t *testing.T) {
	t.Parallel()

	p := &fixedPlugin{satisfied: false}
	cmd := newRootCmd(testRegistry(t, p))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--dry-run", "-c", writeSequence(t)})

	require.NoError(t, cmd.Execute())
	require.Zero(t, p.applyCount)
	require.Contains(t, out.String(), "(dry run)")
	require.Contains(t, out.String(), "[1/2]")
	require.Contains(t, out.String(), "would")
	require.Contains(t, out.String(), "+ run first")
	require.Contains(t, out.String(), "+ run second")
}

func TestProvisionAppliesSteps(t *testing.T) {
	t.Parallel()

	p := &fixedPlugin{satisfied: false}
	cmd := newRootCmd(testRegistry(t, p))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"provision", "-c", writeSequence(t)})

	require.NoError(t, cmd.Execute())
	require.Equal(t, 2, p.applyCount)
	require.Contains(t, out.String(), "result: success")
}

func TestVerifySucceedsWhenMachineSatisfied(t *testing.T) {
	t.Parallel()

	p := &fixedPlugin{satisfied: true}
	cmd := newRootCmd(testRegistry(t, p))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"verify", "-c", writeSequence(t)})

	require.NoError(t, cmd.Execute())
	require.Zero(t, p.applyCount)
	require.Contains(t, out.String(), "satisfied: 2")
}

func TestVerifyFailsWhenWorkRemains(t *testing.T) {
	t.Parallel()

	p := &fixedPlugin{satisfied: false}
	cmd := newRootCmd(testRegistry(t, p))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"verify", "-c", writeSequence(t)})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not fully provisioned")
	require.Zero(t, p.applyCount)
}

func TestProvisionRejectsBadConfigPath(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(testRegistry(t, &fixedPlugin{}))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"provision", "-c", filepath.Join(t.TempDir(), "missing.yaml")})

	require.Error(t, cmd.Execute())
}

func TestLoadConfigDefaultsToBuiltinSequence(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Steps)
	require.Equal(t, "ubuntu-fresh-vm", cfg.Name)
}
