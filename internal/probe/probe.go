// Package probe answers read-only questions about the live machine. Probes
// never mutate state and never cache: every call reflects the machine as it is
// at that moment, because the environment may change between runs.
package probe

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"strings"
)

// Probe is the capability steps use to evaluate their preconditions. Passing
// it explicitly (rather than reaching for ambient state) lets tests substitute
// a fake machine.
type Probe interface {
	// CommandExists reports whether a binary is resolvable on PATH.
	CommandExists(name string) bool

	// FileExists reports whether a file or directory exists at path.
	// Leading ~ is expanded against the current user's home.
	FileExists(path string) bool

	// FileContains reports whether the file at path contains text as a
	// literal substring. A missing file is not an error; it simply does not
	// contain the text.
	FileContains(path, text string) (bool, error)

	// UserInGroup reports whether the named user is a member of group. An
	// empty username means the current user.
	UserInGroup(username, group string) (bool, error)
}

// System probes the real host.
type System struct{}

// NewSystem returns a Probe backed by the live machine.
func NewSystem() *System {
	return &System{}
}

var _ Probe = (*System)(nil)

func (s *System) CommandExists(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func (s *System) FileExists(path string) bool {
	expanded, err := ExpandPath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(expanded)
	return err == nil
}

func (s *System) FileContains(path, text string) (bool, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return strings.Contains(string(data), text), nil
}

func (s *System) UserInGroup(username, group string) (bool, error) {
	var u *user.User
	var err error
	if username == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(username)
	}
	if err != nil {
		return false, err
	}

	target, err := user.LookupGroup(group)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return false, nil
		}
		return false, err
	}

	ids, err := u.GroupIds()
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if id == target.Gid {
			return true, nil
		}
	}
	return false, nil
}

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return home + path[1:], nil
	}
	return path, nil
}
