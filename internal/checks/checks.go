// Package checks runs post-run validations against the provisioned machine.
// Checks go through the same probe capability steps use, so a fake machine
// can stand in during tests.
package checks

import (
	"context"
	"fmt"

	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/probe"
)

// Result captures the outcome of one validation.
type Result struct {
	Passed  bool
	Message string
}

// Run evaluates every validation and returns per-check results. The error is
// non-nil when at least one check failed, naming the first failure.
func Run(ctx context.Context, probes probe.Probe, validations []config.Validation) ([]Result, error) {
	results := make([]Result, 0, len(validations))
	var firstErr error

	for _, v := range validations {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := runOne(probes, v)
		results = append(results, res)
		if !res.Passed && firstErr == nil {
			firstErr = fmt.Errorf("validation failed: %s", res.Message)
		}
	}

	return results, firstErr
}

func runOne(probes probe.Probe, v config.Validation) Result {
	switch v.Type {
	case "command_exists":
		if probes.CommandExists(v.Command) {
			return Result{Passed: true, Message: fmt.Sprintf("command %s is available", v.Command)}
		}
		return Result{Passed: false, Message: fmt.Sprintf("command %s not found on PATH", v.Command)}

	case "file_exists":
		if probes.FileExists(v.Path) {
			return Result{Passed: true, Message: fmt.Sprintf("%s exists", v.Path)}
		}
		return Result{Passed: false, Message: fmt.Sprintf("%s does not exist", v.Path)}

	case "path_contains":
		found, err := probes.FileContains(v.File, v.Text)
		if err != nil {
			return Result{Passed: false, Message: fmt.Sprintf("cannot read %s: %v", v.File, err)}
		}
		if found {
			return Result{Passed: true, Message: fmt.Sprintf("%s contains %q", v.File, v.Text)}
		}
		return Result{Passed: false, Message: fmt.Sprintf("%s does not contain %q", v.File, v.Text)}

	case "user_in_group":
		member, err := probes.UserInGroup(v.User, v.Group)
		if err != nil {
			return Result{Passed: false, Message: fmt.Sprintf("cannot check group %s: %v", v.Group, err)}
		}
		if member {
			return Result{Passed: true, Message: fmt.Sprintf("user is in group %s", v.Group)}
		}
		return Result{Passed: false, Message: fmt.Sprintf("user is not in group %s", v.Group)}
	}

	return Result{Passed: false, Message: fmt.Sprintf("unknown validation type %q", v.Type)}
}
