package k8s

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/tools/cache"

	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
)

// WatchPodsQuery runs a pod informer over managed pods and delivers every
// add, update and delete to handler until ctx is done.
func (a *Adapter) WatchPodsQuery(
	ctx context.Context,
	namespace string,
	handler func(controller.PodEvent),
) error {
	factory := informers.NewSharedInformerFactoryWithOptions(
		a.clientset,
		a.resync,
		informers.WithNamespace(namespace),
		informers.WithTweakListOptions(func(opts *metav1.ListOptions) {
			opts.LabelSelector = controller.ManagedLabelSelector
		}),
	)

	informer := factory.Core().V1().Pods().Informer()

	deliver := func(obj any, deleted bool) {
		pod, ok := obj.(*corev1.Pod)
		if !ok {
			return
		}

		status, ok := toPodStatus(pod)
		if !ok {
			a.logger.DebugContext(ctx, "pod without workload label ignored", "pod", podKey(pod))

			return
		}

		handler(controller.PodEvent{
			ID:      eventID(pod, deleted),
			Status:  status,
			Deleted: deleted,
		})
	}

	_, err := informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj any) {
			deliver(obj, false)
		},
		UpdateFunc: func(_, obj any) {
			deliver(obj, false)
		},
		DeleteFunc: func(obj any) {
			if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}

			deliver(obj, true)
		},
	})
	if err != nil {
		return fmt.Errorf("add pod event handler: %w", err)
	}

	factory.Start(ctx.Done())
	defer factory.Shutdown()

	// returns false only once ctx is done
	if !cache.WaitForCacheSync(ctx.Done(), informer.HasSynced) {
		return nil
	}

	a.logger.InfoContext(ctx, "pod informer synced", "namespace", namespace)

	<-ctx.Done()

	return nil
}

// eventID identifies one observed version of a pod. Resync deliveries of an
// unchanged pod share the ID and are dropped as duplicates.
func eventID(pod *corev1.Pod, deleted bool) string {
	if pod.ResourceVersion == "" {
		return uuid.NewString()
	}

	id := string(pod.UID) + "@" + pod.ResourceVersion
	if deleted {
		id += "/deleted"
	}

	return id
}
