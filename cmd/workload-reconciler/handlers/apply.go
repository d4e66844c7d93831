package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/workload-reconciler/internal/logic/catalog"
	"github.com/skillcoder/workload-reconciler/internal/logic/manifest"
)

// ApplyOptions are the inputs of the apply command.
type ApplyOptions struct {
	// File is a manifest path; "-" reads stdin.
	File   string
	DryRun bool
}

// Apply validates a manifest and stores it. Nothing is stored when any
// document is invalid. With DryRun the orchestrator pods the reconciler would
// create are printed instead.
func Apply(ctx context.Context, out io.Writer, in io.Reader, opts ApplyOptions) error {
	data, err := readManifest(in, opts.File)
	if err != nil {
		return err
	}

	bundle, err := newParser().Parse(data)
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	if opts.DryRun {
		return printDryRun(out, bundle)
	}

	svc, closeStore, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	applied, err := svc.ApplyBundleCommand(ctx, bundle)
	if err != nil {
		return err
	}

	printApplied(out, applied)

	return nil
}

func printDryRun(out io.Writer, bundle *manifest.Bundle) error {
	rendered, err := k8s.RenderPods(bundle.Workloads)
	if err != nil {
		return fmt.Errorf("render pods: %w", err)
	}

	if _, err := out.Write(rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	for _, svc := range bundle.Services {
		fmt.Fprintf(out, "# service/%s valid (dry run)\n", svc.Name)
	}

	return nil
}

func readManifest(in io.Reader, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return data, nil
}

func printApplied(out io.Writer, applied []catalog.Applied) {
	for _, a := range applied {
		fmt.Fprintf(out, "%s/%s %s\n", strings.ToLower(string(a.Kind)), a.Name, a.Change)
	}
}
