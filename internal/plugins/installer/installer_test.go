package installerplugin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

type fakeFetcher struct {
	script []byte
	err    error
	urls   []string
}

func (f *fakeFetcher) Script(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.script, f.err
}

func installerStep(checkCommand, checkFile string) *config.Step {
	return &config.Step{
		ID:      "docker",
		Type:    "installer",
		Enabled: true,
		Installer: &config.InstallerStep{
			URL:          "https://get.docker.com",
			CheckCommand: checkCommand,
			CheckFile:    checkFile,
		},
	}
}

func TestEvaluateCommandOnPath(t *testing.T) {
	t.Parallel()

	probes := probe.NewFake()
	probes.AddCommand("docker")
	p := New(probes, execx.NewFake(), &fakeFetcher{})

	eval, err := p.Evaluate(context.Background(), installerStep("docker", ""))
	require.NoError(t, err)
	require.True(t, eval.Satisfied)
}

func TestEvaluateCheckFile(t *testing.T) {
	t.Parallel()

	probes := probe.NewFake()
	probes.AddFile("~/.nvm/nvm.sh", "")
	p := New(probes, execx.NewFake(), &fakeFetcher{})

	eval, err := p.Evaluate(context.Background(), installerStep("", "~/.nvm/nvm.sh"))
	require.NoError(t, err)
	require.True(t, eval.Satisfied)
}

func TestEvaluateNothingPresent(t *testing.T) {
	t.Parallel()

	p := New(probe.NewFake(), execx.NewFake(), &fakeFetcher{})

	eval, err := p.Evaluate(context.Background(), installerStep("docker", ""))
	require.NoError(t, err)
	require.False(t, eval.Satisfied)
	require.Contains(t, eval.Message, "docker")
}

func TestApplyRunsFetchedScript(t *testing.T) {
	t.Parallel()

	runner := execx.NewFake()
	fetcher := &fakeFetcher{script: []byte("#!/bin/sh\napt-get install -y docker-ce\n")}
	p := New(probe.NewFake(), runner, fetcher)

	res, err := p.Apply(context.Background(), nil, installerStep("docker", ""))
	require.NoError(t, err)
	require.Equal(t, model.StatusApplied, res.Status)
	require.Equal(t, []string{"https://get.docker.com"}, fetcher.urls)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].Script, "docker-ce")
}

func TestApplyFetchFailurePropagates(t *testing.T) {
	t.Parallel()

	// An HTML error page is rejected by the fetcher, so the engine can select
	// the step's fallback. The script must never reach the shell.
	runner := execx.NewFake()
	fetcher := &fakeFetcher{err: vmseederrors.NewNetworkError("https://get.docker.com", fmt.Errorf("response is an HTML page, not a script"))}
	p := New(probe.NewFake(), runner, fetcher)

	res, err := p.Apply(context.Background(), nil, installerStep("docker", ""))
	require.Error(t, err)
	require.Equal(t, model.StatusFailed, res.Status)
	require.Empty(t, runner.Calls())

	var execErr *plugin.ExecutionError
	require.True(t, errors.As(err, &execErr))
	var netErr *vmseederrors.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestApplyScriptFailure(t *testing.T) {
	t.Parallel()

	runner := execx.NewFake()
	runner.Respond("docker-ce", execx.Result{Stderr: "curl: not found", ExitCode: 127}, fmt.Errorf("exit status 127"))
	fetcher := &fakeFetcher{script: []byte("#!/bin/sh\napt-get install -y docker-ce\n")}
	p := New(probe.NewFake(), runner, fetcher)

	res, err := p.Apply(context.Background(), nil, installerStep("docker", ""))
	require.Error(t, err)
	require.Contains(t, err.Error(), "curl: not found")
	require.Equal(t, model.StatusFailed, res.Status)
}
