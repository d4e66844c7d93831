package manifest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/infra/cronparser"
	"github.com/skillcoder/workload-reconciler/internal/logic/manifest"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const webManifest = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  labels:
    app: web
spec:
  replicas: 2
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      restartPolicy: Always
      restartSchedule: "0 3 * * *"
      timezone: Europe/Berlin
      containers:
        - name: nginx
          image: nginx:1.27
          command: ["nginx", "-g", "daemon off;"]
          env:
            - name: MODE
              value: prod
          ports:
            - containerPort: 80
---
kind: Service
metadata:
  name: web
spec:
  selector:
    app: web
  ports:
    - port: 80
      targetPort: 8080
---
kind: Pod
metadata:
  name: migrate
  namespace: jobs
spec:
  restartPolicy: Never
  containers:
    - image: migrate:v3
`

func TestParser_Parse_Valid(t *testing.T) {
	t.Parallel()

	parser := manifest.NewParser(cronparser.New())

	bundle, err := parser.Parse([]byte(webManifest))
	require.NoError(t, err)
	require.Equal(t, 3, bundle.Len())
	require.Len(t, bundle.Workloads, 2)
	require.Len(t, bundle.Services, 1)

	web := bundle.Workloads[0]
	require.Equal(t, workload.KindDeployment, web.Kind)
	require.Equal(t, "default", web.Namespace)
	require.Equal(t, 2, web.Replicas)
	require.Equal(t, workload.RestartAlways, web.RestartPolicy)
	require.Equal(t, "0 3 * * *", web.RestartSchedule)
	require.Equal(t, "Europe/Berlin", web.Timezone)
	require.Equal(t, "nginx:1.27", web.Container.Image)
	require.Equal(t, int32(80), web.Container.Port)
	require.Equal(t, []workload.EnvVar{{Name: "MODE", Value: "prod"}}, web.Container.Env)
	require.Equal(t, map[string]string{"app": "web"}, web.Labels)

	migrate := bundle.Workloads[1]
	require.Equal(t, workload.KindPod, migrate.Kind)
	require.Equal(t, "jobs", migrate.Namespace)
	require.Equal(t, 1, migrate.Replicas)
	require.Equal(t, workload.RestartNever, migrate.RestartPolicy)
	require.Equal(t, "migrate", migrate.Container.Name)

	svc := bundle.Services[0]
	require.Equal(t, map[string]string{"app": "web"}, svc.Selector)
	require.Equal(t, int32(8080), svc.TargetPort)
}

func TestParser_Parse_Invalid(t *testing.T) {
	t.Parallel()

	parser := manifest.NewParser(cronparser.New())

	tests := []struct {
		name      string
		giveYAML  string
		wantField string
	}{
		{
			name: "missing image",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  template:
    spec:
      containers: [{name: app}]
`,
			wantField: "spec.template.spec.containers[0].image",
		},
		{
			name: "unsupported restart policy",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  restartPolicy: Sometimes
  containers: [{image: nginx}]
`,
			wantField: "spec.restartPolicy",
		},
		{
			name: "negative replicas",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  replicas: -1
  template:
    spec:
      containers: [{image: nginx}]
`,
			wantField: "spec.replicas",
		},
		{
			name: "broken restart schedule",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  restartSchedule: "every night"
  containers: [{image: nginx}]
`,
			wantField: "spec.restartSchedule",
		},
		{
			name: "invalid name",
			giveYAML: `
kind: Pod
metadata: {name: Web_App}
spec:
  containers: [{image: nginx}]
`,
			wantField: "metadata.name",
		},
		{
			name: "two containers",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  containers: [{image: a}, {image: b}]
`,
			wantField: "spec.containers",
		},
		{
			name: "selector does not match template",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  selector: {matchLabels: {app: api}}
  template:
    metadata: {labels: {app: web}}
    spec:
      containers: [{image: nginx}]
`,
			wantField: "spec.selector.matchLabels",
		},
		{
			name: "service without selector",
			giveYAML: `
kind: Service
metadata: {name: web}
spec:
  ports: [{port: 80}]
`,
			wantField: "spec.selector",
		},
		{
			name: "service port out of range",
			giveYAML: `
kind: Service
metadata: {name: web}
spec:
  selector: {app: web}
  ports: [{port: 80, targetPort: 70000}]
`,
			wantField: "spec.ports[0].targetPort",
		},
		{
			name: "missing kind",
			giveYAML: `
metadata: {name: web}
`,
			wantField: "kind",
		},
		{
			name: "unsupported kind",
			giveYAML: `
kind: CronJob
metadata: {name: web}
`,
			wantField: "kind",
		},
		{
			name: "replicas of the wrong type",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  replicas: two
  template:
    spec:
      containers: [{image: nginx}]
`,
			wantField: "spec.replicas",
		},
		{
			name: "nested value of the wrong type",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  template:
    spec:
      containers: [{image: nginx, ports: [{containerPort: eighty}]}]
`,
			wantField: "spec.template.spec.containers[0].ports[0].containerPort",
		},
		{
			name: "scalar where a list belongs",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  containers: nginx
`,
			wantField: "spec.containers",
		},
		{
			name: "unknown nested field",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  containers:
    - image: nginx
      imagePull: Always
`,
			wantField: "spec.containers[0].imagePull",
		},
		{
			name: "too many replicas",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  replicas: 100000
  template:
    spec:
      containers: [{image: nginx}]
`,
			wantField: "spec.replicas",
		},
		{
			name: "pod named like a deployment replica",
			giveYAML: `
kind: Deployment
metadata: {name: web}
spec:
  replicas: 2
  template:
    spec:
      containers: [{image: nginx}]
---
kind: Pod
metadata: {name: web-0}
spec:
  containers: [{image: nginx}]
`,
			wantField: "metadata.name",
		},
		{
			name: "duplicate workload",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  containers: [{image: nginx}]
---
kind: Deployment
metadata: {name: web}
spec:
  template:
    spec:
      containers: [{image: nginx}]
`,
			wantField: "metadata.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bundle, err := parser.Parse([]byte(tt.giveYAML))
			require.Error(t, err)
			require.Nil(t, bundle)
			require.ErrorIs(t, err, workload.ErrValidation)
			require.Contains(t, fields(err), tt.wantField)
		})
	}
}

func TestParser_Parse_Rejects(t *testing.T) {
	t.Parallel()

	parser := manifest.NewParser(cronparser.New())

	tests := []struct {
		name        string
		giveYAML    string
		wantContain string
	}{
		{
			name: "unknown field",
			giveYAML: `
kind: Pod
metadata: {name: web}
spec:
  replicaz: 3
  containers: [{image: nginx}]
`,
			wantContain: "replicaz",
		},
		{
			name: "pod name collision",
			giveYAML: `
kind: Pod
metadata: {name: api-1}
spec:
  containers: [{image: nginx}]
---
kind: Deployment
metadata: {name: api}
spec:
  replicas: 3
  template:
    spec:
      containers: [{image: nginx}]
`,
			wantContain: "document 2 (Deployment api): metadata.name: pod default/api-1 is already created by workload default/api-1",
		},
		{
			name:        "malformed yaml",
			giveYAML:    "kind: Pod\nmetadata: [unclosed\n",
			wantContain: "malformed yaml",
		},
		{
			name:        "empty file",
			giveYAML:    "---\n",
			wantContain: "no documents found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parser.Parse([]byte(tt.giveYAML))
			require.ErrorIs(t, err, workload.ErrValidation)
			require.ErrorContains(t, err, tt.wantContain)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	err := &manifest.ValidationError{
		Document: 2,
		Kind:     "Service",
		Name:     "web",
		Field:    "spec.selector",
		Reason:   "required",
	}

	require.Equal(t, "document 2 (Service web): spec.selector: required", err.Error())
	require.ErrorIs(t, err, workload.ErrValidation)
}

func fields(err error) []string {
	var out []string

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var ve *manifest.ValidationError
			if errors.As(e, &ve) {
				out = append(out, ve.Field)
			}
		}

		return out
	}

	var ve *manifest.ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve.Field)
	}

	return out
}
