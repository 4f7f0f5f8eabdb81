package fetchfileplugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

type fakeFetcher struct {
	content []byte
	err     error
}

func (f *fakeFetcher) File(ctx context.Context, url string) ([]byte, error) {
	return f.content, f.err
}

func fetchStep(destination string, backup bool) *config.Step {
	return &config.Step{
		ID:      "shell_rc",
		Type:    "fetchfile",
		Enabled: true,
		FetchFile: &config.FetchFileStep{
			URL:         "https://example.com/bashrc",
			Destination: destination,
			Backup:      backup,
		},
	}
}

func fixedClock(day string) Clock {
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func TestEvaluateMatchingContentIsSatisfied(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("alias ll='ls -la'\n"), 0o644))
	p := New(&fakeFetcher{content: []byte("alias ll='ls -la'\n")})

	eval, err := p.Evaluate(context.Background(), fetchStep(path, true))
	require.NoError(t, err)
	require.True(t, eval.Satisfied)
}

func TestEvaluateDifferingContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))
	p := New(&fakeFetcher{content: []byte("new content\n")})

	eval, err := p.Evaluate(context.Background(), fetchStep(path, true))
	require.NoError(t, err)
	require.False(t, eval.Satisfied)
	require.NotEmpty(t, eval.Diff)
}

func TestEvaluateFetchFailureLeavesFileAlone(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("precious\n"), 0o644))
	p := New(&fakeFetcher{err: vmseederrors.NewNetworkError("https://example.com/bashrc", fmt.Errorf("response is an HTML page"))})

	_, err := p.Evaluate(context.Background(), fetchStep(path, true))
	require.Error(t, err)

	var stateErr *plugin.StateError
	require.True(t, errors.As(err, &stateErr))

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, "precious\n", string(content))
}

func TestApplyReplacesFileAndBacksUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))
	p := NewWithClock(&fakeFetcher{content: []byte("new\n")}, fixedClock("2026-08-27"))
	step := fetchStep(path, true)

	res, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)
	require.Equal(t, model.StatusApplied, res.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new\n", string(content))

	backup, err := os.ReadFile(path + ".bak.2026-08-27")
	require.NoError(t, err)
	require.Equal(t, "old\n", string(backup))
}

func TestApplyAtMostOneBackupPerDay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("v1\n"), 0o644))

	clock := fixedClock("2026-08-27")
	step := fetchStep(path, true)

	p := NewWithClock(&fakeFetcher{content: []byte("v2\n")}, clock)
	_, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	// A later run the same day must not overwrite the morning backup.
	p = NewWithClock(&fakeFetcher{content: []byte("v3\n")}, clock)
	_, err = p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".bak.2026-08-27")
	require.NoError(t, err)
	require.Equal(t, "v1\n", string(backup))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestApplyNewBackupNextDay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("v1\n"), 0o644))
	step := fetchStep(path, true)

	p := NewWithClock(&fakeFetcher{content: []byte("v2\n")}, fixedClock("2026-08-27"))
	_, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	p = NewWithClock(&fakeFetcher{content: []byte("v3\n")}, fixedClock("2026-08-28"))
	_, err = p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	first, err := os.ReadFile(path + ".bak.2026-08-27")
	require.NoError(t, err)
	require.Equal(t, "v1\n", string(first))

	second, err := os.ReadFile(path + ".bak.2026-08-28")
	require.NoError(t, err)
	require.Equal(t, "v2\n", string(second))
}

func TestApplyBackupDisabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bashrc")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))
	p := NewWithClock(&fakeFetcher{content: []byte("new\n")}, fixedClock("2026-08-27"))

	_, err := p.Apply(context.Background(), nil, fetchStep(path, false))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestApplyCreatesMissingDestination(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "bashrc")
	p := NewWithClock(&fakeFetcher{content: []byte("fresh\n")}, fixedClock("2026-08-27"))

	res, err := p.Apply(context.Background(), nil, fetchStep(path, true))
	require.NoError(t, err)
	require.Equal(t, model.StatusApplied, res.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fresh\n", string(content))
}
