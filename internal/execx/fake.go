package execx

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one invocation made through the fake runner.
type Call struct {
	Name   string
	Args   []string
	Script string
	Quiet  bool
}

// Fake is an in-memory Runner. Responses are matched by command name (Run) or
// by substring of the script (RunShell); unmatched invocations succeed with an
// empty result.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]fakeResponse
	// OnRun, when set, is invoked for every call and may mutate shared test
	// state (e.g. flip a fake probe after an install).
	OnRun func(call Call)
}

type fakeResponse struct {
	result Result
	err    error
}

// NewFake returns a Fake runner with no scripted responses.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]fakeResponse)}
}

var _ Runner = (*Fake)(nil)

// Respond scripts the response for a command name or script substring.
func (f *Fake) Respond(match string, result Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[match] = fakeResponse{result: result, err: err}
}

// Fail scripts a non-zero exit for a command name or script substring.
func (f *Fake) Fail(match string, exitCode int) {
	f.Respond(match, Result{ExitCode: exitCode}, fmt.Errorf("exit status %d", exitCode))
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: args}
	f.record(call)
	return f.respond(name, call)
}

func (f *Fake) RunQuiet(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: args, Quiet: true}
	f.record(call)
	return f.respond(name, call)
}

func (f *Fake) RunShell(ctx context.Context, script string, opts ShellOptions) (Result, error) {
	call := Call{Script: script, Quiet: opts.Quiet}
	f.record(call)

	f.mu.Lock()
	for match, resp := range f.responses {
		if strings.Contains(script, match) {
			f.mu.Unlock()
			f.notify(call)
			return resp.result, resp.err
		}
	}
	f.mu.Unlock()
	f.notify(call)
	return Result{}, nil
}

func (f *Fake) record(call Call) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *Fake) respond(name string, call Call) (Result, error) {
	f.mu.Lock()
	resp, ok := f.responses[name]
	f.mu.Unlock()
	f.notify(call)
	if !ok {
		return Result{}, nil
	}
	return resp.result, resp.err
}

func (f *Fake) notify(call Call) {
	if f.OnRun != nil {
		f.OnRun(call)
	}
}
