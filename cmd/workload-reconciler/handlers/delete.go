package handlers

import (
	"context"
	"io"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Delete removes the workload and service specs stored under a name. The
// reconciler scales a removed workload to zero.
func Delete(ctx context.Context, out io.Writer, kind workload.Kind, namespace, name string) error {
	svc, closeStore, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	deleted, err := svc.DeleteCommand(ctx, kind, namespace, name)
	if err != nil {
		return err
	}

	printApplied(out, deleted)

	return nil
}
