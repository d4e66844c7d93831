// Package k8s runs workload pods on a Kubernetes API server.
package k8s

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const defaultResync = 10 * time.Minute

// Adapter implements controller.Repository on top of a clientset.
type Adapter struct {
	logger    *slog.Logger
	clientset kubernetes.Interface
	namespace string
	resync    time.Duration
}

// New creates a new K8s adapter. namespace scopes Ping; empty means all namespaces.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
	namespace string,
) *Adapter {
	return &Adapter{
		logger:    logger.With("component", "k8s-adapter"),
		clientset: clientset,
		namespace: namespace,
		resync:    defaultResync,
	}
}

var _ controller.Repository = (*Adapter)(nil)

func (a *Adapter) Name() string {
	return "kubernetes-api"
}

// Ping checks that managed pods can be listed.
func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.clientset.CoreV1().Pods(a.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: controller.ManagedLabelSelector,
		Limit:         1,
	})
	if err != nil {
		return fmt.Errorf("list pods: %w", err)
	}

	return nil
}

func (a *Adapter) ListPodsQuery(
	ctx context.Context,
	namespace string,
) (controller.PodList, error) {
	podList, err := a.clientset.CoreV1().Pods(namespace).List(
		ctx,
		metav1.ListOptions{
			LabelSelector: controller.ManagedLabelSelector,
		},
	)
	if err != nil {
		return controller.PodList{}, classify("list pods", namespace, err)
	}

	pods := make([]workload.PodStatus, 0, len(podList.Items))

	for i := range podList.Items {
		status, ok := toPodStatus(&podList.Items[i])
		if !ok {
			continue
		}

		pods = append(pods, status)
	}

	return controller.PodList{
		Items:           pods,
		ResourceVersion: parseResourceVersion(podList.ResourceVersion),
	}, nil
}

// CreatePodCommand creates the pod of a replica slot. An existing pod counts as success.
func (a *Adapter) CreatePodCommand(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pod workload.PodRef,
	restarts int,
) error {
	err := a.create(ctx, spec, pod, restarts)
	if apierrors.IsAlreadyExists(err) {
		a.logger.DebugContext(ctx, "pod already exists", "pod", pod.Key())

		return nil
	}

	return classify("create pod", pod.Key(), err)
}

// DeletePodCommand deletes a pod gracefully. A missing pod counts as success.
func (a *Adapter) DeletePodCommand(
	ctx context.Context,
	pod workload.PodRef,
) error {
	err := a.clientset.CoreV1().Pods(pod.Namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}

	return classify("delete pod", pod.Key(), err)
}

// RestartPodCommand replaces the pod with a fresh one carrying restarts.
// The old pod is removed immediately so the name can be reused.
func (a *Adapter) RestartPodCommand(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pod workload.PodRef,
	restarts int,
) error {
	err := a.clientset.CoreV1().Pods(pod.Namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{
		GracePeriodSeconds: ptr.To[int64](0),
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return classify("delete pod for restart", pod.Key(), err)
	}

	// AlreadyExists here means the old pod is still going away; it is retried.
	if err := a.create(ctx, spec, pod, restarts); err != nil {
		var notFound *PodNotFoundError

		classified := classify("create pod for restart", pod.Key(), err)
		if errors.As(classified, &notFound) {
			// the namespace is gone
			return &PermanentError{Op: "create pod for restart", Err: err}
		}

		return classified
	}

	return nil
}

func (a *Adapter) create(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pod workload.PodRef,
	restarts int,
) error {
	obj := BuildPod(spec, pod, restarts)

	_, err := a.clientset.CoreV1().Pods(pod.Namespace).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("create pod %s: %w", pod.Key(), err)
	}

	a.logger.InfoContext(ctx, "pod created", "pod", pod.Key(), "restarts", restarts)

	return nil
}

func podKey(pod *corev1.Pod) string {
	return workload.Key(pod.Namespace, pod.Name)
}
