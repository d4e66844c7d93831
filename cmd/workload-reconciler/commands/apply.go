package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/handlers"
)

var errNoManifest = errors.New("a manifest is required: use -f <file>, a positional <file> or - for stdin")

// Apply returns the command that validates and stores a manifest.
//
// Exit codes: 0 accepted, 2 validation failure (nothing stored), 1 other errors.
func Apply() *cobra.Command {
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply [-f] <file>",
		Short: "Validate and store workloads and services from a manifest",
		Long: `Validate every document of a multi-document YAML manifest and store the
workloads and services it declares. Nothing is stored when any document is invalid.

Examples:
  workload-reconciler apply -f web.yaml
  cat web.yaml | workload-reconciler apply -f -
  workload-reconciler apply --dry-run web.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.File == "" && len(args) == 1 {
				opts.File = args[0]
			}

			if opts.File == "" {
				return errNoManifest
			}

			return handlers.Apply(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "filename", "f", "", "Manifest file, - for stdin")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate and print the pods that would be created without storing")

	return cmd
}
