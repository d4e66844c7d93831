package k8s

import (
	"bytes"
	"fmt"
	"maps"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// BuildPod returns the pod object for one replica slot of spec.
// The kubelet never restarts it; restarts are issued by the reconciler.
func BuildPod(spec *workload.WorkloadSpec, ref workload.PodRef, restarts int) *corev1.Pod {
	labels := maps.Clone(spec.Labels)
	if labels == nil {
		labels = make(map[string]string, 3)
	}

	labels[controller.ManagedLabelKey] = "true"
	labels[controller.WorkloadLabelKey] = spec.Name
	labels[controller.OrdinalLabelKey] = strconv.Itoa(ref.Ordinal)

	container := corev1.Container{
		Name:    spec.Container.Name,
		Image:   spec.Container.Image,
		Command: spec.Container.Command,
		Args:    spec.Container.Args,
	}

	if container.Name == "" {
		container.Name = spec.Name
	}

	for _, env := range spec.Container.Env {
		container.Env = append(container.Env, corev1.EnvVar{Name: env.Name, Value: env.Value})
	}

	if spec.Container.Port > 0 {
		container.Ports = []corev1.ContainerPort{{
			ContainerPort: spec.Container.Port,
			Protocol:      corev1.ProtocolTCP,
		}}
	}

	return &corev1.Pod{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Pod",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ref.Name,
			Namespace: ref.Namespace,
			Labels:    labels,
			Annotations: map[string]string{
				controller.RestartCountAnnotationKey: strconv.Itoa(restarts),
				controller.SpecHashAnnotationKey:     workload.SpecHash(spec),
				controller.GenerationAnnotationKey:   strconv.FormatInt(spec.Generation, 10),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers:    []corev1.Container{container},
		},
	}
}

// RenderPods renders the pods every replica slot of specs would get, as a
// multi-document YAML stream.
func RenderPods(specs []workload.WorkloadSpec) ([]byte, error) {
	var buf bytes.Buffer

	for i := range specs {
		spec := &specs[i]

		for ordinal := range spec.Replicas {
			data, err := yaml.Marshal(BuildPod(spec, spec.PodRef(ordinal), 0))
			if err != nil {
				return nil, fmt.Errorf("render pod %s: %w", spec.PodName(ordinal), err)
			}

			if buf.Len() > 0 {
				buf.WriteString("---\n")
			}

			buf.Write(data)
		}
	}

	return buf.Bytes(), nil
}
