package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/handlers"
)

// Run returns the command that starts the reconciler daemon.
func Run() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reconciler daemon",
		Long: `Run the reconciler against the configured orchestrator namespace.

The daemon serves /-/healthz, /-/readyz, /-/status and the /api/v1 read API on
RECONCILER_HTTP_PORT, and Prometheus metrics on RECONCILER_METRICS_PORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context())
		},
	}
}
