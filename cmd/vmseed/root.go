package main

import (
	"github.com/spf13/cobra"

	"github.com/vmseed/vmseed/internal/plugin"
)

type rootFlags struct {
	configPath      string
	verbose         bool
	dryRun          bool
	continueOnError bool
}

func newRootCmd(registry *plugin.Registry) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "vmseed",
		Short:         "vmseed provisions a fresh Ubuntu machine into a ready development box",
		Long:          "vmseed runs an ordered, idempotent sequence of provisioning steps.\nRunning it with no arguments applies the built-in default sequence.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation provisions with the default sequence.
			return runProvision(cmd, registry, provisionOptions{
				ConfigPath:      flags.configPath,
				DryRun:          flags.dryRun,
				Verbose:         flags.verbose,
				ContinueOnError: flags.continueOnError,
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a sequence file (defaults to the built-in sequence)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Evaluate preconditions without changing the machine")
	cmd.PersistentFlags().BoolVar(&flags.continueOnError, "continue-on-error", false, "Treat every step failure as tolerated")

	cmd.AddCommand(newProvisionCmd(flags, registry))
	cmd.AddCommand(newVerifyCmd(flags, registry))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
