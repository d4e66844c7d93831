package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/handlers"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Delete returns the command that removes a stored workload or service.
func Delete() *cobra.Command {
	var (
		namespace string
		kind      string
	)

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a workload and/or service spec",
		Long: `Delete the workload and service stored under a name. The reconciler then
scales a deleted workload's pods to zero. Use --kind to delete only one of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}

			return handlers.Delete(cmd.Context(), cmd.OutOrStdout(), k, namespace, args[0])
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", defaultNamespace, "Namespace")
	cmd.Flags().StringVar(&kind, "kind", "", "Only delete this kind: Pod, Deployment or Service")

	return cmd
}

func parseKind(s string) (workload.Kind, error) {
	switch k := workload.Kind(s); k {
	case "", workload.KindPod, workload.KindDeployment, workload.KindService:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}
