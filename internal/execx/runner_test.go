package execx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetermineShell(t *testing.T) {
	t.Parallel()

	shell, args, err := DetermineShell("/bin/zsh")
	require.NoError(t, err)
	require.Equal(t, "/bin/zsh", shell)
	require.Equal(t, []string{"-c"}, args)

	shell, args, err = DetermineShell("")
	require.NoError(t, err)
	require.NotEmpty(t, shell)
	require.Equal(t, []string{"-c"}, args)
}

func TestResultPrimaryOutput(t *testing.T) {
	t.Parallel()

	require.Equal(t, "err", Result{Stdout: "out", Stderr: "err"}.PrimaryOutput())
	require.Equal(t, "out", Result{Stdout: "out"}.PrimaryOutput())
	require.Empty(t, Result{}.PrimaryOutput())
}

func TestStreamingRunShell(t *testing.T) {
	t.Parallel()

	runner := NewStreaming()

	res, err := runner.RunShell(context.Background(), "echo hello", ShellOptions{})
	require.NoError(t, err)
	require.Equal(t, "hello", res.Stdout)
	require.Zero(t, res.ExitCode)
}

func TestStreamingRunShellNonZeroExit(t *testing.T) {
	t.Parallel()

	runner := NewStreaming()

	res, err := runner.RunShell(context.Background(), "exit 3", ShellOptions{})
	require.Error(t, err)
	require.Equal(t, 3, res.ExitCode)
}

func TestStreamingRunShellEnvAndWorkDir(t *testing.T) {
	t.Parallel()

	runner := NewStreaming()
	dir := t.TempDir()

	res, err := runner.RunShell(context.Background(), "echo $VMSEED_TEST && pwd", ShellOptions{
		WorkDir: dir,
		Env:     map[string]string{"VMSEED_TEST": "marker"},
	})
	require.NoError(t, err)
	require.Contains(t, res.Stdout, "marker")
	require.Contains(t, res.Stdout, dir)
}

func TestStreamingRunQuietCapturesOutput(t *testing.T) {
	t.Parallel()

	runner := NewStreaming()

	res, err := runner.RunQuiet(context.Background(), "sh", "-c", "echo probe")
	require.NoError(t, err)
	require.Equal(t, "probe", res.Stdout)
	require.Zero(t, res.ExitCode)
}

func TestFakeRunnerRecordsQuietCalls(t *testing.T) {
	t.Parallel()

	fake := NewFake()

	_, err := fake.RunQuiet(context.Background(), "dpkg-query", "-W", "tmux")
	require.NoError(t, err)
	_, err = fake.RunShell(context.Background(), "command -v docker", ShellOptions{Quiet: true})
	require.NoError(t, err)
	_, err = fake.Run(context.Background(), "apt-get", "update")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	require.True(t, calls[0].Quiet)
	require.True(t, calls[1].Quiet)
	require.False(t, calls[2].Quiet)
}

func TestFakeRunnerScriptedResponses(t *testing.T) {
	t.Parallel()

	fake := NewFake()
	fake.Fail("apt-get install", 100)
	fake.Respond("nvm install", Result{Stdout: "Now using node"}, nil)

	res, err := fake.RunShell(context.Background(), "apt-get install -y docker.io", ShellOptions{})
	require.Error(t, err)
	require.Equal(t, 100, res.ExitCode)

	res, err = fake.RunShell(context.Background(), "nvm install --lts", ShellOptions{})
	require.NoError(t, err)
	require.Equal(t, "Now using node", res.Stdout)

	// Unmatched invocations succeed.
	res, err = fake.RunShell(context.Background(), "echo unrelated", ShellOptions{})
	require.NoError(t, err)
	require.Zero(t, res.ExitCode)

	require.Len(t, fake.Calls(), 3)
}

func TestFakeRunnerOnRunHook(t *testing.T) {
	t.Parallel()

	fake := NewFake()
	var seen []string
	fake.OnRun = func(call Call) {
		seen = append(seen, call.Name+call.Script)
	}

	_, err := fake.Run(context.Background(), "usermod", "-aG", "docker", "dev")
	require.NoError(t, err)
	_, err = fake.RunShell(context.Background(), "echo hi", ShellOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{"usermod", "echo hi"}, seen)
}
