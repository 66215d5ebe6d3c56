// Package sandbox executes model-generated Python against the data
// collected for one question.
//
// "Sandbox" means output isolation, not a security boundary: the local
// executor runs code as a plain subprocess with only a timeout. The docker
// executor adds an ephemeral resource-limited container for installations
// that want real containment. The caller picks the mode through
// configuration.
package sandbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Conventional artifact names inside the working directory.
const (
	ScriptName = "generated_code.py"
	CSVName    = "data.csv"
	ChartName  = "chart.png"
)

// Result carries everything one execution produced.
type Result struct {
	Output string // captured stdout, trimmed
	Error  string // error message when execution failed, empty otherwise
	Image  string // base64 PNG when the code saved a chart, empty otherwise
}

// Bindings is the structured data made available to generated code: the
// question's working directory, raw CSV content (materialized as a pandas
// DataFrame named df), and scalar parameters bound as top-level variables.
type Bindings struct {
	Dir    string
	CSV    string
	Params map[string]any
}

// Executor runs one piece of generated code with the given bindings.
type Executor interface {
	Execute(ctx context.Context, code string, b Bindings) (Result, error)
}

// materialize writes the bound CSV into the working directory and returns
// the full script (prelude + generated code) ready to run there.
func materialize(code string, b Bindings) (string, error) {
	if b.Dir == "" {
		return "", fmt.Errorf("sandbox: bindings need a working directory")
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	if b.CSV != "" {
		if err := os.WriteFile(filepath.Join(b.Dir, CSVName), []byte(b.CSV), 0o644); err != nil {
			return "", fmt.Errorf("write csv: %w", err)
		}
	}

	script := Prelude(b) + code
	if err := os.WriteFile(filepath.Join(b.Dir, ScriptName), []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return script, nil
}

// collectChart base64-encodes a chart.png left behind by the code, if any.
func collectChart(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, ChartName))
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}
