package probe

import (
	"strings"
	"sync"
)

// Fake is an in-memory Probe used by tests across packages. Mutators may be
// called mid-test to simulate a step changing the machine.
type Fake struct {
	mu       sync.Mutex
	commands map[string]bool
	files    map[string]string
	groups   map[string][]string
}

// NewFake returns an empty fake machine.
func NewFake() *Fake {
	return &Fake{
		commands: make(map[string]bool),
		files:    make(map[string]string),
		groups:   make(map[string][]string),
	}
}

var _ Probe = (*Fake)(nil)

// AddCommand marks a binary as present on PATH.
func (f *Fake) AddCommand(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands[name] = true
}

// AddFile records a file and its contents.
func (f *Fake) AddFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// AddGroupMember records a user's membership in a group.
func (f *Fake) AddGroupMember(group, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[group] = append(f.groups[group], username)
}

func (f *Fake) CommandExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commands[name]
}

func (f *Fake) FileExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *Fake) FileContains(path, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return false, nil
	}
	return strings.Contains(content, text), nil
}

func (f *Fake) UserInGroup(username, group string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if username == "" {
		username = "current"
	}
	for _, member := range f.groups[group] {
		if member == username {
			return true, nil
		}
	}
	return false, nil
}
