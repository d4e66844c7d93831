package handlers

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"k8s.io/apimachinery/pkg/labels"
)

// Resource names accepted by get.
const (
	ResourceWorkloads = "workloads"
	ResourceServices  = "services"
)

// Get lists stored workloads or services of a namespace; an empty namespace lists all.
func Get(ctx context.Context, out io.Writer, resource, namespace string, format Format) error {
	if resource != ResourceWorkloads && resource != ResourceServices {
		return fmt.Errorf("%w: %q, want %s or %s", ErrUnknownResource, resource, ResourceWorkloads, ResourceServices)
	}

	svc, closeStore, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	listing, err := svc.ListQuery(ctx, namespace)
	if err != nil {
		return err
	}

	if format != FormatTable {
		if resource == ResourceServices {
			return printStructured(out, format, listing.Services)
		}

		return printStructured(out, format, listing.Workloads)
	}

	tw := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	if resource == ResourceServices {
		fmt.Fprintln(tw, "NAMESPACE\tNAME\tSELECTOR\tPORT")

		for _, s := range listing.Services {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Namespace, s.Name, labels.Set(s.Selector).String(), s.TargetPort)
		}
	} else {
		fmt.Fprintln(tw, "NAMESPACE\tNAME\tKIND\tREPLICAS\tCONDITION\tGENERATION")

		for _, w := range listing.Workloads {
			condition := "-"
			if w.Condition != nil {
				condition = string(w.Condition.Phase)
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
				w.Spec.Namespace, w.Spec.Name, w.Spec.Kind,
				strconv.Itoa(running(w.Pods))+"/"+strconv.Itoa(w.Spec.Replicas),
				condition, w.Spec.Generation)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
