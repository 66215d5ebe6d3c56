package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Local runs generated code as a plain subprocess in the question's
// working directory. No isolation beyond the timeout; intended for
// trusted environments only.
type Local struct {
	PythonBin string
	Timeout   time.Duration
}

// NewLocal creates a subprocess-backed executor.
func NewLocal(pythonBin string, timeout time.Duration) *Local {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Local{PythonBin: pythonBin, Timeout: timeout}
}

// Execute writes the script and runs it, capturing stdout and stderr.
// Execution failure lands in Result.Error, not in the returned error: the
// driver surfaces it to the model as corrective feedback.
func (l *Local) Execute(ctx context.Context, code string, b Bindings) (Result, error) {
	if _, err := materialize(code, b); err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, l.PythonBin, ScriptName)
	cmd.Dir = b.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Output: strings.TrimSpace(stdout.String()),
		Image:  collectChart(b.Dir),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Error = fmt.Sprintf("execution timeout after %s", l.Timeout)
	case err != nil:
		res.Error = strings.TrimSpace(stderr.String())
		if res.Error == "" {
			res.Error = err.Error()
		}
	}

	if res.Error != "" {
		slog.Debug("Sandbox execution failed", "error", res.Error)
	} else {
		slog.Debug("Sandbox execution succeeded", "output_chars", len(res.Output))
	}
	return res, nil
}
