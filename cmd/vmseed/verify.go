package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmseed/vmseed/internal/checks"
	"github.com/vmseed/vmseed/internal/engine"
	"github.com/vmseed/vmseed/internal/logger"
	"github.com/vmseed/vmseed/internal/model"
	"github.com/vmseed/vmseed/internal/plugin"
	"github.com/vmseed/vmseed/internal/probe"
	"github.com/vmseed/vmseed/internal/report"
)

func newVerifyCmd(root *rootFlags, registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check whether the machine already satisfies the sequence",
		Long:  "verify evaluates every step's precondition without changing the machine\nand exits non-zero when provisioning work remains.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, registry, root)
		},
	}
}

func runVerify(cmd *cobra.Command, registry *plugin.Registry, root *rootFlags) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := "info"
	if root.verbose || cfg.Settings.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	renderer := report.New(cmd.OutOrStdout(), true)

	execCtx := &engine.ExecutionContext{
		Config:   cfg,
		Registry: registry,
		Logger:   log,
		Context:  ctx,
		DryRun:   true,
		// Probe failures should not stop verification of later steps.
		ContinueOnError: true,
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

	if len(cfg.Validations) > 0 {
		results, _ := checks.Run(ctx, probe.NewSystem(), cfg.Validations)
		renderer.Validations(results)
	}

	pending := summary.WouldApply + summary.Warnings
	if pending > 0 {
		return fmt.Errorf("machine is not fully provisioned: %d steps pending", pending)
	}
	return nil
}
