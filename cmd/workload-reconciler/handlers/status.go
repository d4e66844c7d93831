package handlers

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/skillcoder/workload-reconciler/internal/logic/catalog"
)

// Status prints what the reconciler observed for a workload and/or a service.
func Status(ctx context.Context, out io.Writer, namespace, name string, format Format) error {
	svc, closeStore, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	status, err := svc.StatusQuery(ctx, namespace, name)
	if err != nil {
		return err
	}

	if format != FormatTable {
		return printStructured(out, format, status)
	}

	return printStatusTable(out, status)
}

func printStatusTable(out io.Writer, status *catalog.Status) error {
	tw := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	if ws := status.Workload; ws != nil {
		fmt.Fprintf(tw, "Workload:\t%s/%s (%s, generation %d)\n",
			ws.Spec.Namespace, ws.Spec.Name, ws.Spec.Kind, ws.Spec.Generation)

		if ws.Condition != nil {
			fmt.Fprintf(tw, "Condition:\t%s\t%s\n", ws.Condition.Phase, ws.Condition.Message)
		} else {
			fmt.Fprintf(tw, "Condition:\t<not reconciled yet>\n")
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "POD\tPHASE\tRESTARTS\tLAST EXIT\tADDRESS")

		for _, p := range ws.Pods {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.Name, p.Phase, p.RestartCount, p.LastExitCode, dash(p.Address))
		}
	}

	if ss := status.Service; ss != nil {
		if status.Workload != nil {
			fmt.Fprintln(tw)
		}

		fmt.Fprintf(tw, "Service:\t%s/%s (selector %s, port %d)\n",
			ss.Spec.Namespace, ss.Spec.Name, labels.Set(ss.Spec.Selector).String(), ss.Spec.TargetPort)
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "POD\tENDPOINT")

		addrs := ss.Endpoints.Addresses()
		for i, ep := range ss.Endpoints.Endpoints {
			fmt.Fprintf(tw, "%s\t%s\n", ep.Pod, addrs[i])
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
