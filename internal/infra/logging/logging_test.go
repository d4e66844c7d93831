package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/infra/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		giveFormat string
		giveLevel  string
		wantJSON   bool
		wantDebug  bool
	}{
		{name: "json info", giveFormat: "json", giveLevel: "info", wantJSON: true},
		{name: "text debug", giveFormat: "text", giveLevel: "debug", wantDebug: true},
		{name: "unknown format falls back to json", giveFormat: "xml", giveLevel: "", wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := logging.New(&buf, tt.giveFormat, tt.giveLevel)
			logger.Debug("debug line")
			logger.Info("info line", "workload", "default/web")

			out := buf.String()
			require.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))

			lines := strings.Split(strings.TrimSpace(out), "\n")
			last := lines[len(lines)-1]

			if tt.wantJSON {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(last), &entry))
				require.Equal(t, "default/web", entry["workload"])

				return
			}

			require.Contains(t, last, "workload=default/web")
		})
	}
}
