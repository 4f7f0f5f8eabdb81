package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmseed/vmseed/internal/checks"
	"github.com/vmseed/vmseed/internal/config"
	"github.com/vmseed/vmseed/internal/engine"
	"github.com/vmseed/vmseed/internal/logger"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
	"github.com/vmseed/vmseed/internal/report"
)

type provisionOptions struct {
	ConfigPath      string
	DryRun          bool
	Verbose         bool
	ContinueOnError bool
}

func newProvisionCmd(root *rootFlags, registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Run the provisioning sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, registry, provisionOptions{
				ConfigPath:      root.configPath,
				DryRun:          root.dryRun,
				Verbose:         root.verbose,
				ContinueOnError: root.continueOnError,
			})
		},
	}
}

func runProvision(cmd *cobra.Command, registry *plugin.Registry, opts provisionOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveDryRun := opts.DryRun || cfg.Settings.DryRun
	effectiveVerbose := opts.Verbose || cfg.Settings.Verbose

	level := "info"
	if effectiveVerbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	renderer := report.New(cmd.OutOrStdout(), effectiveDryRun)

	execCtx := &engine.ExecutionContext{
		Config:          cfg,
		Registry:        registry,
		Logger:          log,
		Context:         ctx,
		DryRun:          effectiveDryRun,
		ContinueOnError: opts.ContinueOnError || cfg.Settings.ContinueOnError,
		OnResult: func(index, total int, res model.StepResult) {
			renderer.Step(index, total, res)
		},
	}

	enabled := 0
	for _, step := range cfg.Steps {
		if step.Enabled {
			enabled++
		}
	}
	renderer.Start(enabled)

	summary, execErr := engine.Execute(execCtx)
	if summary != nil {
		renderer.Summary(summary)
	}

	if execErr != nil {
		return execErr
	}

	if !effectiveDryRun && len(cfg.Validations) > 0 {
		results, valErr := checks.Run(ctx, probe.NewSystem(), cfg.Validations)
		renderer.Validations(results)
		if valErr != nil {
			return valErr
		}
	}

	return nil
}

// loadConfig parses the given sequence file, or returns the built-in default
// sequence when no path is supplied.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(config.DefaultOptions{}), nil
	}

	cfg, err := config.ParseConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}
