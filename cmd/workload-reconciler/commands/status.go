package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/handlers"
)

// Status returns the command that prints pod statuses and endpoints.
func Status() *cobra.Command {
	var (
		namespace string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Show pods and condition of a workload, or endpoints of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := handlers.ParseFormat(output)
			if err != nil {
				return err
			}

			return handlers.Status(cmd.Context(), cmd.OutOrStdout(), namespace, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", defaultNamespace, "Namespace")
	cmd.Flags().StringVarP(&output, "output", "o", string(handlers.FormatTable), "Output format: table, json or yaml")

	return cmd
}
