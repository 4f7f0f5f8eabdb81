package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vmseed/vmseed/internal/checks"
	"github.com/vmseed/vmseed/internal/model"
)

func TestStepLinesAreNumberedAndPlain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, false)

	r.Start(3)
	r.Step(1, 3, model.StepResult{StepID: "docker", Status: model.StatusApplied, Message: "installer from https://get.docker.com completed"})
	r.Step(2, 3, model.StepResult{StepID: "tmux", Status: model.StatusSatisfied, Message: "all packages installed: tmux"})
	r.Step(3, 3, model.StepResult{StepID: "shell_rc", Status: model.StatusWarning, Message: "tolerated failure"})

	out := buf.String()
	require.Contains(t, out, "Provisioning 3 steps")
	require.Contains(t, out, "[1/3]")
	require.Contains(t, out, "applied")
	require.Contains(t, out, "docker")
	require.Contains(t, out, "[2/3]")
	require.Contains(t, out, "ok")
	require.Contains(t, out, "[3/3]")
	require.Contains(t, out, "warning")

	// A pipe is not a terminal, so no ANSI escapes appear.
	require.NotContains(t, out, "\x1b[")
}

func TestDryRunHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, true)
	r.Start(2)

	require.Contains(t, buf.String(), "(dry run)")
}

func TestDryRunStepShowsDiffPreview(t *testing.T) {
	t.Parallel()

	res := model.StepResult{
		StepID:  "sshd_keepalive",
		Status:  model.StatusWouldApply,
		Message: "/etc/ssh/sshd_config is missing 2 line(s)",
		Diff:    "-#ClientAliveInterval 0\n+ClientAliveInterval 60\n+ClientAliveCountMax 3\n",
	}

	var buf bytes.Buffer
	New(&buf, true).Step(1, 1, res)

	out := buf.String()
	require.Contains(t, out, "+ClientAliveInterval 60")
	require.Contains(t, out, "+ClientAliveCountMax 3")
	require.Contains(t, out, "-#ClientAliveInterval 0")

	// Outside dry-run the diff stays off the step line.
	buf.Reset()
	New(&buf, false).Step(1, 1, res)
	require.NotContains(t, buf.String(), "+ClientAliveInterval 60")
}

func TestSummarySuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, false)

	summary := &model.RunSummary{TotalSteps: 4, Satisfied: 1, Applied: 2, Fallback: 1, Duration: 90 * time.Second}
	r.Summary(summary)

	out := buf.String()
	require.Contains(t, out, "satisfied: 1")
	require.Contains(t, out, "applied: 2")
	require.Contains(t, out, "fallback: 1")
	require.Contains(t, out, "result: success")
}

func TestSummaryFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, false)

	summary := &model.RunSummary{TotalSteps: 3, Applied: 1, FailedStep: "docker"}
	r.Summary(summary)

	require.Contains(t, buf.String(), "failed-at-step(docker)")
}

func TestValidationsRendering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, false)

	r.Validations([]checks.Result{
		{Passed: true, Message: "command docker is available"},
		{Passed: false, Message: "command kubectl not found on PATH"},
	})

	out := buf.String()
	require.Contains(t, out, "Validations")
	require.Contains(t, out, "ok command docker is available")
	require.Contains(t, out, "fail command kubectl not found on PATH")

	// No output at all when there is nothing to report.
	buf.Reset()
	r.Validations(nil)
	require.Empty(t, buf.String())
}
