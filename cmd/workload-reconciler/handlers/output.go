package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/pretty"
	"sigs.k8s.io/yaml"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const tabPadding = 3

var (
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrUnknownResource = errors.New("unknown resource")
)

// Format is an output format of status and get.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// printStructured writes v as indented JSON, colored on a terminal, or as YAML.
func printStructured(out io.Writer, format Format, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if format == FormatYAML {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("encode yaml output: %w", err)
		}
	} else {
		data = pretty.Pretty(data)

		if f, ok := out.(*os.File); ok && isTerminal(f) {
			data = pretty.Color(data, nil)
		}
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func running(pods []workload.PodStatus) int {
	n := 0

	for i := range pods {
		if pods[i].Phase == workload.PhaseRunning && !pods[i].Terminating {
			n++
		}
	}

	return n
}
