package manifest

import (
	"fmt"
	"maps"
	"time"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const (
	// ordinalSuffixLen reserves room for "-NNNNN" in deployment pod names.
	ordinalSuffixLen = 6
	// MaxReplicas keeps every ordinal within ordinalSuffixLen.
	MaxReplicas = 99999
)

func (p *Parser) podWorkload(fe *fieldErrors, d *podDocument) workload.WorkloadSpec {
	checkAPIVersion(fe, d.APIVersion, "v1")

	spec := workload.WorkloadSpec{
		Kind:      workload.KindPod,
		Name:      d.Metadata.Name,
		Namespace: namespaceOrDefault(d.Metadata.Namespace),
		Labels:    copyLabels(d.Metadata.Labels),
		Replicas:  1,
	}

	checkMeta(fe, &d.Metadata, validation.DNS1123LabelMaxLength)
	p.applyPodSpec(fe, "spec", &d.Spec, &spec)

	return spec
}

func (p *Parser) deploymentWorkload(fe *fieldErrors, d *deploymentDocument) workload.WorkloadSpec {
	checkAPIVersion(fe, d.APIVersion, "apps/v1")

	podLabels := d.Spec.Template.Metadata.Labels
	if len(podLabels) == 0 {
		podLabels = d.Metadata.Labels
	}

	spec := workload.WorkloadSpec{
		Kind:      workload.KindDeployment,
		Name:      d.Metadata.Name,
		Namespace: namespaceOrDefault(d.Metadata.Namespace),
		Labels:    copyLabels(podLabels),
		Replicas:  1,
	}

	checkMeta(fe, &d.Metadata, validation.DNS1123LabelMaxLength-ordinalSuffixLen)
	checkLabels(fe, "spec.template.metadata.labels", d.Spec.Template.Metadata.Labels)

	if d.Spec.Replicas != nil {
		spec.Replicas = *d.Spec.Replicas
		switch {
		case spec.Replicas < 0:
			fe.add("spec.replicas", "must be greater than or equal to 0")
		case spec.Replicas > MaxReplicas:
			fe.add("spec.replicas", fmt.Sprintf("must be less than or equal to %d", MaxReplicas))
		}
	}

	if d.Spec.Selector != nil && len(d.Spec.Selector.MatchLabels) > 0 {
		checkLabels(fe, "spec.selector.matchLabels", d.Spec.Selector.MatchLabels)

		selector := labels.SelectorFromSet(d.Spec.Selector.MatchLabels)
		if !selector.Matches(labels.Set(spec.Labels)) {
			fe.add("spec.selector.matchLabels", "does not match the pod template labels")
		}
	}

	p.applyPodSpec(fe, "spec.template.spec", &d.Spec.Template.Spec, &spec)

	return spec
}

func (p *Parser) applyPodSpec(fe *fieldErrors, prefix string, in *podSpec, out *workload.WorkloadSpec) {
	switch policy := workload.RestartPolicy(in.RestartPolicy); policy {
	case "":
		out.RestartPolicy = workload.RestartAlways
	case workload.RestartAlways, workload.RestartOnFailure, workload.RestartNever:
		out.RestartPolicy = policy
	default:
		fe.add(prefix+".restartPolicy",
			fmt.Sprintf("unsupported value %q, want Always, OnFailure or Never", in.RestartPolicy))
	}

	out.RestartSchedule = in.RestartSchedule
	out.Timezone = in.Timezone

	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			fe.add(prefix+".timezone", "unknown time zone "+in.Timezone)
		}
	}

	if in.RestartSchedule != "" && p.schedules != nil {
		if err := p.schedules.Validate(in.RestartSchedule, in.Timezone); err != nil {
			fe.add(prefix+".restartSchedule", err.Error())
		}
	}

	if len(in.Containers) != 1 {
		fe.add(prefix+".containers", fmt.Sprintf("exactly one container is required, got %d", len(in.Containers)))

		return
	}

	out.Container = containerFromDocument(fe, prefix+".containers[0]", &in.Containers[0], out.Name)
}

func containerFromDocument(fe *fieldErrors, prefix string, in *container, fallbackName string) workload.Container {
	out := workload.Container{
		Name:    in.Name,
		Image:   in.Image,
		Command: in.Command,
		Args:    in.Args,
	}

	if out.Name == "" {
		out.Name = fallbackName
	} else {
		fe.addAll(prefix+".name", validation.IsDNS1123Label(in.Name))
	}

	if in.Image == "" {
		fe.add(prefix+".image", "required")
	}

	for i, env := range in.Env {
		fe.addAll(fmt.Sprintf("%s.env[%d].name", prefix, i), validation.IsEnvVarName(env.Name))
		out.Env = append(out.Env, workload.EnvVar{Name: env.Name, Value: env.Value})
	}

	switch len(in.Ports) {
	case 0:
	case 1:
		out.Port = in.Ports[0].ContainerPort
		fe.addAll(prefix+".ports[0].containerPort", validation.IsValidPortNum(int(out.Port)))
	default:
		fe.add(prefix+".ports", "at most one port is supported")
	}

	return out
}

func serviceFromDocument(fe *fieldErrors, d *serviceDocument) workload.ServiceSpec {
	checkAPIVersion(fe, d.APIVersion, "v1")
	checkMeta(fe, &d.Metadata, validation.DNS1123LabelMaxLength)

	svc := workload.ServiceSpec{
		Name:      d.Metadata.Name,
		Namespace: namespaceOrDefault(d.Metadata.Namespace),
		Selector:  copyLabels(d.Spec.Selector),
	}

	if len(d.Spec.Selector) == 0 {
		fe.add("spec.selector", "required")
	} else {
		checkLabels(fe, "spec.selector", d.Spec.Selector)
	}

	if len(d.Spec.Ports) != 1 {
		fe.add("spec.ports", fmt.Sprintf("exactly one port is required, got %d", len(d.Spec.Ports)))

		return svc
	}

	port := d.Spec.Ports[0]

	svc.TargetPort = port.TargetPort
	if svc.TargetPort == 0 {
		svc.TargetPort = port.Port
	}

	fe.addAll("spec.ports[0].targetPort", validation.IsValidPortNum(int(svc.TargetPort)))

	return svc
}

func checkAPIVersion(fe *fieldErrors, got, want string) {
	if got != "" && got != want {
		fe.add("apiVersion", fmt.Sprintf("unsupported value %q, want %q", got, want))
	}
}

func checkMeta(fe *fieldErrors, meta *objectMeta, maxNameLen int) {
	if meta.Name == "" {
		fe.add("metadata.name", "required")
	} else {
		fe.addAll("metadata.name", validation.IsDNS1123Label(meta.Name))

		if len(meta.Name) > maxNameLen {
			fe.add("metadata.name", fmt.Sprintf("must be no more than %d characters", maxNameLen))
		}
	}

	if meta.Namespace != "" {
		fe.addAll("metadata.namespace", validation.IsDNS1123Label(meta.Namespace))
	}

	checkLabels(fe, "metadata.labels", meta.Labels)
}

func checkLabels(fe *fieldErrors, field string, set map[string]string) {
	for k, v := range set {
		fe.addAll(field, validation.IsQualifiedName(k))
		fe.addAll(field+"."+k, validation.IsValidLabelValue(v))
	}
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}

	return ns
}

func copyLabels(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}

	out := make(map[string]string, len(in))
	maps.Copy(out, in)

	return out
}
