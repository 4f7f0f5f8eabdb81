package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents a full vmseed provisioning document. Absent a config
// file, the built-in default sequence (see DefaultConfig) is used.
type Config struct {
	Version     string       `yaml:"version" validate:"required,semver"`
	Name        string       `yaml:"name" validate:"required,min=1,max=100"`
	Description string       `yaml:"description,omitempty"`
	Settings    Settings     `yaml:"settings,omitempty"`
	Steps       []Step       `yaml:"steps" validate:"required,min=1,dive"`
	Validations []Validation `yaml:"validations,omitempty" validate:"omitempty,dive"`
}

// Settings holds global execution parameters.
type Settings struct {
	DryRun          bool `yaml:"dry_run,omitempty"`
	Verbose         bool `yaml:"verbose,omitempty"`
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
}

// Failure policies a step may declare.
const (
	OnFailureFatal    = "fatal"
	OnFailureTolerate = "tolerate"
)

// Step describes one unit of provisioning work. Steps run strictly in
// declared order; depends_on entries document ordering requirements and must
// reference earlier steps.
type Step struct {
	ID        string   `yaml:"id" validate:"required,step_id"`
	Name      string   `yaml:"name,omitempty"`
	Type      string   `yaml:"type" validate:"required,oneof=package installer command lineinfile fetchfile sshkey repo usergroup"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Enabled   bool     `yaml:"enabled,omitempty"`
	OnFailure string   `yaml:"on_failure,omitempty" validate:"omitempty,oneof=fatal tolerate"`
	Fallback  *Step    `yaml:"fallback,omitempty" validate:"-"`

	Package    *PackageStep    `yaml:"-"`
	Installer  *InstallerStep  `yaml:"-"`
	Command    *CommandStep    `yaml:"-"`
	LineInFile *LineInFileStep `yaml:"-"`
	FetchFile  *FetchFileStep  `yaml:"-"`
	SSHKey     *SSHKeyStep     `yaml:"-"`
	Repo       *RepoStep       `yaml:"-"`
	UserGroup  *UserGroupStep  `yaml:"-"`
}

// UnmarshalYAML customises step decoding to populate the type-specific
// structure without key conflicts between step types.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID        string     `yaml:"id"`
		Name      string     `yaml:"name"`
		Type      string     `yaml:"type"`
		DependsOn []string   `yaml:"depends_on"`
		Enabled   *bool      `yaml:"enabled"`
		OnFailure string     `yaml:"on_failure"`
		Fallback  yaml.Node  `yaml:"fallback"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	s.ID = base.ID
	s.Name = base.Name
	s.Type = base.Type
	s.DependsOn = append([]string(nil), base.DependsOn...)
	if base.Enabled != nil {
		s.Enabled = *base.Enabled
	} else {
		s.Enabled = true
	}
	s.OnFailure = base.OnFailure
	if s.OnFailure == "" {
		s.OnFailure = OnFailureFatal
	}

	if !base.Fallback.IsZero() {
		var fb Step
		if err := base.Fallback.Decode(&fb); err != nil {
			return err
		}
		s.Fallback = &fb
	} else {
		s.Fallback = nil
	}

	return s.decodePayload(value)
}

func (s *Step) decodePayload(value *yaml.Node) error {
	s.Package = nil
	s.Installer = nil
	s.Command = nil
	s.LineInFile = nil
	s.FetchFile = nil
	s.SSHKey = nil
	s.Repo = nil
	s.UserGroup = nil

	switch s.Type {
	case "package":
		var pkg PackageStep
		if err := value.Decode(&pkg); err != nil {
			return err
		}
		s.Package = &pkg
	case "installer":
		var inst InstallerStep
		if err := value.Decode(&inst); err != nil {
			return err
		}
		s.Installer = &inst
	case "command":
		var cmd CommandStep
		if err := value.Decode(&cmd); err != nil {
			return err
		}
		s.Command = &cmd
	case "lineinfile":
		var lif LineInFileStep
		if err := value.Decode(&lif); err != nil {
			return err
		}
		s.LineInFile = &lif
	case "fetchfile":
		var ff FetchFileStep
		if err := value.Decode(&ff); err != nil {
			return err
		}
		if ff.BackupSet = hasYAMLKey(value, "backup"); !ff.BackupSet {
			ff.Backup = true
		}
		s.FetchFile = &ff
	case "sshkey":
		var key SSHKeyStep
		if err := value.Decode(&key); err != nil {
			return err
		}
		s.SSHKey = &key
	case "repo":
		var repo RepoStep
		if err := value.Decode(&repo); err != nil {
			return err
		}
		s.Repo = &repo
	case "usergroup":
		var ug UserGroupStep
		if err := value.Decode(&ug); err != nil {
			return err
		}
		s.UserGroup = &ug
	}

	return nil
}

// PackageStep installs one or more apt packages.
type PackageStep struct {
	Packages []string `yaml:"packages" validate:"required,min=1,dive,min=1,max=100"`
	Update   bool     `yaml:"update,omitempty"`
}

// InstallerStep fetches a vendor-hosted install script and pipes it through a
// shell. The precondition is a command on PATH or a file on disk; the fetched
// body is content-checked before it is ever executed.
type InstallerStep struct {
	URL          string `yaml:"url" validate:"required,url"`
	CheckCommand string `yaml:"check_command,omitempty"`
	CheckFile    string `yaml:"check_file,omitempty"`
	Shell        string `yaml:"shell,omitempty"`
}

// CommandStep executes an arbitrary shell command. An optional check command
// acts as the precondition: exit 0 means the step is already satisfied.
type CommandStep struct {
	Command string            `yaml:"command" validate:"required,min=1"`
	Check   string            `yaml:"check,omitempty"`
	Shell   string            `yaml:"shell,omitempty"`
	WorkDir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// LineInFileStep ensures literal lines are present in a file, creating the
// file when missing. OnChange runs only when the file was modified.
type LineInFileStep struct {
	File     string   `yaml:"file" validate:"required"`
	Lines    []string `yaml:"lines" validate:"required,min=1,dive,min=1"`
	Mode     string   `yaml:"mode,omitempty"`
	Backup   bool     `yaml:"backup,omitempty"`
	OnChange string   `yaml:"on_change,omitempty"`
}

// FetchFileStep replaces a local file with content fetched from a fixed URL.
// The previous content is backed up at most once per calendar day.
type FetchFileStep struct {
	URL         string `yaml:"url" validate:"required,url"`
	Destination string `yaml:"destination" validate:"required"`
	Backup      bool   `yaml:"backup,omitempty"`
	BackupSet   bool   `yaml:"-"`
}

// SSHKeyStep generates an SSH key pair when none exists.
type SSHKeyStep struct {
	Path    string `yaml:"path" validate:"required"`
	KeyType string `yaml:"key_type,omitempty"`
	Comment string `yaml:"comment,omitempty"`
}

// RepoStep clones a git repository.
type RepoStep struct {
	URL         string `yaml:"url" validate:"required,url"`
	Destination string `yaml:"destination" validate:"required"`
	Branch      string `yaml:"branch,omitempty"`
	Depth       int    `yaml:"depth,omitempty" validate:"omitempty,min=0"`
}

// UserGroupStep ensures a user belongs to a system group. An empty user means
// the invoking user.
type UserGroupStep struct {
	User  string `yaml:"user,omitempty"`
	Group string `yaml:"group" validate:"required"`
}

// Validation represents a post-run validation.
type Validation struct {
	Type string `yaml:"type" validate:"required,oneof=command_exists file_exists path_contains user_in_group"`

	Command string `yaml:"command,omitempty"`
	Path    string `yaml:"path,omitempty"`
	File    string `yaml:"file,omitempty"`
	Text    string `yaml:"text,omitempty"`
	User    string `yaml:"user,omitempty"`
	Group   string `yaml:"group,omitempty"`
}

// StepMap builds a lookup table for steps by ID.
func StepMap(steps []Step) map[string]Step {
	out := make(map[string]Step, len(steps))
	for _, step := range steps {
		out[step.ID] = step
	}
	return out
}

func hasYAMLKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if strings.EqualFold(k.Value, key) {
			return true
		}
	}
	return false
}
