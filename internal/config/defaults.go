package config

// Remote resources the default sequence installs from. Each is fetched with a
// plain GET and content-checked before use.
const (
	DefaultDockerInstallURL = "https://get.docker.com"
	DefaultNvmInstallURL    = "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh"
	DefaultNvmRepoURL       = "https://github.com/nvm-sh/nvm.git"
	DefaultUvInstallURL     = "https://astral.sh/uv/install.sh"
	DefaultShellRCURL       = "https://raw.githubusercontent.com/vmseed/dotfiles/main/bashrc"

	DefaultAssistantPackage = "@anthropic-ai/claude-code"
	DefaultAssistantCommand = "claude"
)

// DefaultOptions customises the built-in sequence without a config file.
type DefaultOptions struct {
	ShellRCURL       string
	AssistantPackage string
	AssistantCommand string
}

// DefaultConfig returns the canonical provisioning sequence for a fresh
// Ubuntu machine. Order is significant: nvm must precede node, node must
// precede the assistant install, and the depends_on declarations document
// those requirements so validation can enforce them.
func DefaultConfig(opts DefaultOptions) *Config {
	if opts.ShellRCURL == "" {
		opts.ShellRCURL = DefaultShellRCURL
	}
	if opts.AssistantPackage == "" {
		opts.AssistantPackage = DefaultAssistantPackage
	}
	if opts.AssistantCommand == "" {
		opts.AssistantCommand = DefaultAssistantCommand
	}

	nvmShell := `export NVM_DIR="$HOME/.nvm" && [ -s "$NVM_DIR/nvm.sh" ] && . "$NVM_DIR/nvm.sh"`

	return &Config{
		Version:     "1.0",
		Name:        "ubuntu-fresh-vm",
		Description: "Provision a fresh Ubuntu virtual machine",
		Steps: []Step{
			{
				ID:        "base_packages",
				Name:      "Base packages",
				Type:      "package",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Package: &PackageStep{
					Packages: []string{"ca-certificates", "curl", "git"},
					Update:   true,
				},
			},
			{
				ID:        "tmux",
				Name:      "tmux",
				Type:      "package",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Package:   &PackageStep{Packages: []string{"tmux"}},
			},
			{
				ID:        "docker",
				Name:      "Docker Engine",
				Type:      "installer",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Installer: &InstallerStep{
					URL:          DefaultDockerInstallURL,
					CheckCommand: "docker",
				},
				Fallback: &Step{
					Type:    "package",
					Enabled: true,
					Package: &PackageStep{Packages: []string{"docker.io"}},
				},
			},
			{
				ID:        "docker_group",
				Name:      "Docker group membership",
				Type:      "usergroup",
				DependsOn: []string{"docker"},
				Enabled:   true,
				OnFailure: OnFailureFatal,
				UserGroup: &UserGroupStep{Group: "docker"},
			},
			{
				ID:        "nvm",
				Name:      "Node version manager",
				Type:      "installer",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Installer: &InstallerStep{
					URL:       DefaultNvmInstallURL,
					CheckFile: "~/.nvm/nvm.sh",
				},
				Fallback: &Step{
					Type:    "repo",
					Enabled: true,
					Repo: &RepoStep{
						URL:         DefaultNvmRepoURL,
						Destination: "~/.nvm",
						Depth:       1,
					},
				},
			},
			{
				ID:        "nvm_profile",
				Name:      "nvm profile snippet",
				Type:      "lineinfile",
				DependsOn: []string{"nvm"},
				Enabled:   true,
				OnFailure: OnFailureFatal,
				LineInFile: &LineInFileStep{
					File: "/etc/profile.d/nvm.sh",
					Mode: "0644",
					Lines: []string{
						`export NVM_DIR="$HOME/.nvm"`,
						`[ -s "$NVM_DIR/nvm.sh" ] && . "$NVM_DIR/nvm.sh"`,
					},
				},
			},
			{
				ID:        "node",
				Name:      "Node.js LTS",
				Type:      "command",
				DependsOn: []string{"nvm"},
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Command: &CommandStep{
					Command: nvmShell + ` && nvm install --lts`,
					Check:   `test -d "$HOME/.nvm/versions/node"`,
				},
			},
			{
				ID:        "assistant",
				Name:      "AI assistant CLI",
				Type:      "command",
				DependsOn: []string{"node"},
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Command: &CommandStep{
					Command: nvmShell + ` && npm install -g ` + opts.AssistantPackage,
					Check:   nvmShell + `; command -v ` + opts.AssistantCommand,
				},
			},
			{
				ID:        "uv",
				Name:      "uv Python package manager",
				Type:      "installer",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				Installer: &InstallerStep{
					URL:          DefaultUvInstallURL,
					CheckCommand: "uv",
				},
				Fallback: &Step{
					Type:    "command",
					Enabled: true,
					Command: &CommandStep{Command: "pip3 install --user uv"},
				},
			},
			{
				ID:        "ssh_key",
				Name:      "SSH key pair",
				Type:      "sshkey",
				Enabled:   true,
				OnFailure: OnFailureFatal,
				SSHKey: &SSHKeyStep{
					Path:    "~/.ssh/id_ed25519",
					KeyType: "ed25519",
				},
			},
			{
				ID:        "sshd_keepalive",
				Name:      "sshd keepalive",
				Type:      "lineinfile",
				Enabled:   true,
				OnFailure: OnFailureTolerate,
				LineInFile: &LineInFileStep{
					File:   "/etc/ssh/sshd_config",
					Backup: true,
					Lines: []string{
						"ClientAliveInterval 60",
						"ClientAliveCountMax 10",
					},
					OnChange: "systemctl reload ssh || systemctl reload sshd",
				},
			},
			{
				ID:        "shell_rc",
				Name:      "Canonical shell rc",
				Type:      "fetchfile",
				Enabled:   true,
				OnFailure: OnFailureTolerate,
				FetchFile: &FetchFileStep{
					URL:         opts.ShellRCURL,
					Destination: "~/.bashrc",
					Backup:      true,
				},
			},
		},
		Validations: []Validation{
			{Type: "command_exists", Command: "docker"},
			{Type: "command_exists", Command: "tmux"},
			{Type: "file_exists", Path: "~/.ssh/id_ed25519"},
			{Type: "path_contains", File: "/etc/ssh/sshd_config", Text: "ClientAliveInterval"},
		},
	}
}
