package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/handlers"
)

// Get returns the command that lists stored workloads or services.
func Get() *cobra.Command {
	var (
		namespace     string
		allNamespaces bool
		output        string
	)

	cmd := &cobra.Command{
		Use:       "get workloads|services",
		Short:     "List workloads or services",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{handlers.ResourceWorkloads, handlers.ResourceServices},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := handlers.ParseFormat(output)
			if err != nil {
				return err
			}

			if allNamespaces {
				namespace = ""
			}

			return handlers.Get(cmd.Context(), cmd.OutOrStdout(), args[0], namespace, format)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", defaultNamespace, "Namespace")
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "List across all namespaces")
	cmd.Flags().StringVarP(&output, "output", "o", string(handlers.FormatTable), "Output format: table, json or yaml")

	return cmd
}
