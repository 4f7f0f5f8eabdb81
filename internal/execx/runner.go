// Package execx runs the external installers and package-manager commands
// steps depend on. The sequencer never reimplements their behavior; it only
// decides whether and how to invoke them.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Result captures the output of a completed command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PrimaryOutput returns stderr if present, otherwise stdout. Error messages
// from installers usually land on stderr.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// ShellOptions controls how a shell invocation is assembled.
type ShellOptions struct {
	Shell   string
	WorkDir string
	Env     map[string]string
	// Quiet suppresses streaming to the parent process; output is only
	// captured. Precondition checks run quiet so probes never write to the
	// user's terminal.
	Quiet bool
}

// Runner executes external commands. Steps hold a Runner rather than calling
// os/exec directly so tests can substitute a fake.
type Runner interface {
	// Run executes a binary with arguments.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// RunQuiet executes a binary with output captured but not streamed. Used
	// for read-only probes whose output belongs to the sequencer, not the
	// user.
	RunQuiet(ctx context.Context, name string, args ...string) (Result, error)

	// RunShell executes a script string through a shell (`sh -c` style).
	RunShell(ctx context.Context, script string, opts ShellOptions) (Result, error)
}

// Streaming is the production Runner. Command output is wired through to the
// parent process while being collected for later inspection, so long-running
// installers stay visible.
type Streaming struct{}

// NewStreaming returns the production Runner.
func NewStreaming() *Streaming {
	return &Streaming{}
}

var _ Runner = (*Streaming)(nil)

func (s *Streaming) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	return run(cmd, false)
}

func (s *Streaming) RunQuiet(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	return run(cmd, true)
}

func (s *Streaming) RunShell(ctx context.Context, script string, opts ShellOptions) (Result, error) {
	shell, shellArgs, err := DetermineShell(opts.Shell)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	args := append(shellArgs, script)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Env = buildEnv(opts.Env)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	return run(cmd, opts.Quiet)
}

func run(cmd *exec.Cmd, quiet bool) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	if quiet {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	} else {
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)
	}

	err := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}

	return res, err
}

// DetermineShell resolves the shell binary and its command flag. An explicit
// shell wins; otherwise bash is preferred over sh.
func DetermineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
