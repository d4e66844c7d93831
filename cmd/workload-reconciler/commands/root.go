// Package commands defines the CLI command structure and flag bindings.
// Command execution is delegated to the handlers package.
package commands

import "github.com/spf13/cobra"

const defaultNamespace = "default"

// Root returns the root command of the workload-reconciler CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload-reconciler",
		Short: "Declare workloads and services and keep them reconciled",
		Long: `workload-reconciler stores declared workloads and services and runs a
reconciler that keeps orchestrator pods matching them.

Configuration is read from RECONCILER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(Status())
	cmd.AddCommand(Get())
	cmd.AddCommand(Delete())
	cmd.AddCommand(Run())

	return cmd
}
