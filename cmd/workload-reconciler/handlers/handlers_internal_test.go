package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/memory"
	"github.com/skillcoder/workload-reconciler/internal/app"
	"github.com/skillcoder/workload-reconciler/internal/config"
	"github.com/skillcoder/workload-reconciler/internal/logic/catalog"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const webManifest = `
kind: Deployment
metadata: {name: web}
spec:
  replicas: 2
  template:
    metadata: {labels: {app: web}}
    spec:
      containers: [{image: "nginx:1.27", ports: [{containerPort: 80}]}]
---
kind: Service
metadata: {name: web}
spec:
  selector: {app: web}
  ports: [{port: 80}]
`

// useMemoryStore points the handlers at one shared in-memory store for the
// duration of the test. Tests using it must not run in parallel.
func useMemoryStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.New()

	prevLoad, prevOpen, prevLogger := loadConfig, openStore, newLogger

	loadConfig = func() (*config.Config, error) {
		return &config.Config{Namespace: "default", Store: config.StoreMemory}, nil
	}
	openStore = func(*slog.Logger, *config.Config) (app.Store, error) {
		return store, nil
	}
	newLogger = func(*config.Config) *slog.Logger {
		return slog.New(slog.DiscardHandler)
	}

	t.Cleanup(func() {
		loadConfig, openStore, newLogger = prevLoad, prevOpen, prevLogger
	})

	return store
}

func apply(t *testing.T, manifest string) string {
	t.Helper()

	var out bytes.Buffer

	require.NoError(t, Apply(t.Context(), &out, strings.NewReader(manifest), ApplyOptions{File: "-"}))

	return out.String()
}

func TestApply(t *testing.T) {
	useMemoryStore(t)

	require.Equal(t, "deployment/web created\nservice/web created\n", apply(t, webManifest))
	require.Equal(t, "deployment/web unchanged\nservice/web unchanged\n", apply(t, webManifest))
}

func TestApply_FromFile(t *testing.T) {
	useMemoryStore(t)

	path := filepath.Join(t.TempDir(), "web.yaml")
	require.NoError(t, os.WriteFile(path, []byte(webManifest), 0o600))

	var out bytes.Buffer

	require.NoError(t, Apply(t.Context(), &out, nil, ApplyOptions{File: path}))
	require.Contains(t, out.String(), "deployment/web created")

	err := Apply(t.Context(), &out, nil, ApplyOptions{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApply_Invalid(t *testing.T) {
	store := useMemoryStore(t)

	var out bytes.Buffer

	err := Apply(t.Context(), &out, strings.NewReader(webManifest+`---
kind: Pod
metadata: {name: broken}
spec:
  containers: [{name: broken}]
`), ApplyOptions{File: "-"})
	require.ErrorIs(t, err, workload.ErrValidation)
	require.Empty(t, out.String())

	specs, err := store.ListWorkloadsQuery(t.Context(), "")
	require.NoError(t, err)
	require.Empty(t, specs)
}

func TestApply_DryRun(t *testing.T) {
	store := useMemoryStore(t)

	var out bytes.Buffer

	err := Apply(t.Context(), &out, strings.NewReader(webManifest), ApplyOptions{File: "-", DryRun: true})
	require.NoError(t, err)

	rendered := out.String()
	require.Contains(t, rendered, "kind: Pod")
	require.Contains(t, rendered, "name: web-0")
	require.Contains(t, rendered, "name: web-1")
	require.Contains(t, rendered, "# service/web valid (dry run)")

	specs, err := store.ListWorkloadsQuery(t.Context(), "")
	require.NoError(t, err)
	require.Empty(t, specs)
}

func TestApply_ValidatesBeforeOpeningStore(t *testing.T) {
	useMemoryStore(t)

	errUnavailable := errors.New("redis unavailable")
	openStore = func(*slog.Logger, *config.Config) (app.Store, error) {
		return nil, errUnavailable
	}

	tests := []struct {
		name     string
		giveYAML string
		giveDry  bool
		wantErr  error
	}{
		{
			name:     "invalid manifest",
			giveYAML: "kind: Pod\nmetadata: {name: broken}\nspec:\n  containers: [{name: broken}]\n",
			wantErr:  workload.ErrValidation,
		},
		{
			name:     "dry run",
			giveYAML: webManifest,
			giveDry:  true,
		},
		{
			name:     "valid manifest",
			giveYAML: webManifest,
			wantErr:  errUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := Apply(t.Context(), &out, strings.NewReader(tt.giveYAML), ApplyOptions{File: "-", DryRun: tt.giveDry})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Contains(t, out.String(), "name: web-0")
		})
	}
}

func TestStatus(t *testing.T) {
	store := useMemoryStore(t)
	ctx := t.Context()

	err := Status(ctx, &bytes.Buffer{}, "default", "web", FormatTable)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	apply(t, webManifest)

	require.NoError(t, store.SavePodStatusCommand(ctx, &workload.PodStatus{
		Namespace: "default",
		Name:      "web-0",
		Workload:  "web",
		Phase:     workload.PhaseRunning,
		Address:   "10.0.0.1",
		Labels:    map[string]string{"app": "web"},
	}))

	var table bytes.Buffer

	require.NoError(t, Status(ctx, &table, "default", "web", FormatTable))
	require.Contains(t, table.String(), "Workload:")
	require.Contains(t, table.String(), "<not reconciled yet>")
	require.Contains(t, table.String(), "web-0")
	require.Contains(t, table.String(), "10.0.0.1:80")

	var structured bytes.Buffer

	require.NoError(t, Status(ctx, &structured, "default", "web", FormatJSON))

	var status catalog.Status
	require.NoError(t, json.Unmarshal(structured.Bytes(), &status))
	require.NotNil(t, status.Workload)
	require.Equal(t, 2, status.Workload.Spec.Replicas)
	require.NotNil(t, status.Service)
	require.Equal(t, []string{"10.0.0.1:80"}, status.Service.Endpoints.Addresses())
}

func TestGet(t *testing.T) {
	useMemoryStore(t)
	apply(t, webManifest)

	tests := []struct {
		name         string
		giveResource string
		giveFormat   Format
		wantContains []string
		wantErr      error
	}{
		{
			name:         "workloads table",
			giveResource: ResourceWorkloads,
			giveFormat:   FormatTable,
			wantContains: []string{"NAMESPACE", "REPLICAS", "web", "Deployment", "0/2"},
		},
		{
			name:         "services table",
			giveResource: ResourceServices,
			giveFormat:   FormatTable,
			wantContains: []string{"SELECTOR", "app=web", "80"},
		},
		{
			name:         "workloads yaml",
			giveResource: ResourceWorkloads,
			giveFormat:   FormatYAML,
			wantContains: []string{"kind: Deployment", "replicas: 2"},
		},
		{
			name:         "services json",
			giveResource: ResourceServices,
			giveFormat:   FormatJSON,
			wantContains: []string{`"name": "web"`},
		},
		{
			name:         "unknown resource",
			giveResource: "pods",
			giveFormat:   FormatTable,
			wantErr:      ErrUnknownResource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := Get(t.Context(), &out, tt.giveResource, "", tt.giveFormat)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)

			for _, want := range tt.wantContains {
				require.Contains(t, out.String(), want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	useMemoryStore(t)
	apply(t, webManifest)

	var out bytes.Buffer

	require.NoError(t, Delete(t.Context(), &out, workload.KindService, "default", "web"))
	require.Equal(t, "service/web deleted\n", out.String())

	out.Reset()

	require.NoError(t, Delete(t.Context(), &out, "", "default", "web"))
	require.Equal(t, "deployment/web deleted\n", out.String())

	err := Delete(t.Context(), &out, "", "default", "web")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give    string
		want    Format
		wantErr bool
	}{
		{give: "table", want: FormatTable},
		{give: "json", want: FormatJSON},
		{give: "yaml", want: FormatYAML},
		{give: "wide", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.give)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormat)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
