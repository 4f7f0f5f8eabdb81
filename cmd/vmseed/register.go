package main

import (
	"github.com/vmseed/vmseed/internal/execx"
	"github.com/vmseed/vmseed/internal/fetch"
	"github.com/vmseed/vmseed/internal/plugin"
	commandplugin "github.com/vmseed/vmseed/internal/plugins/command"
	fetchfileplugin "github.com/vmseed/vmseed/internal/plugins/fetchfile"
	installerplugin "github.com/vmseed/vmseed/internal/plugins/installer"
	lineinfileplugin "github.com/vmseed/vmseed/internal/plugins/lineinfile"
	packageplugin "github.com/vmseed/vmseed/internal/plugins/package"
	repoplugin "github.com/vmseed/vmseed/internal/plugins/repo"
	sshkeyplugin "github.com/vmseed/vmseed/internal/plugins/sshkey"
	usergroupplugin "github.com/vmseed/vmseed/internal/plugins/usergroup"
	"github.com/vmseed/vmseed/internal/probe"
)

// registerPlugins wires every step type against the live system: real probes,
// a streaming command runner, and an HTTP fetcher with content checks.
func registerPlugins(registry *plugin.Registry) error {
	probes := probe.NewSystem()
	runner := execx.NewStreaming()
	fetcher := fetch.New(0)

	plugins := []plugin.Plugin{
		packageplugin.New(runner),
		installerplugin.New(probes, runner, fetcher),
		commandplugin.New(runner),
		lineinfileplugin.New(runner),
		fetchfileplugin.New(fetcher),
		sshkeyplugin.New(probes, runner),
		repoplugin.New(),
		usergroupplugin.New(probes, runner),
	}

	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	return nil
}
