package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrToolMissing is returned when an external OCR tool is not installed.
var ErrToolMissing = errors.New("ocr tool not found")

const maxStderrLog = 8 << 10

// Runner executes an external tool. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ToolError carries the exit status and stderr tail of a failed tool run.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited %d: %v", e.Tool, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s exited %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ExecRunner runs tools with os/exec. Env entries are appended to the
// process environment (e.g. TESSDATA_PREFIX=...).
type ExecRunner struct {
	Logger *slog.Logger
	Env    []string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path, err := exec.LookPath(name)
	if err != nil {
		logger.Error("exec.missing", "cmd", name, "error", err)
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		tail := tailString(strings.TrimSpace(stderr.String()), maxStderrLog)
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		logger.Error("exec.failed", "cmd", name, "args", strings.Join(args, " "), "exit_code", code,
			"elapsed_ms", elapsed, "stderr", tail)
		return stdout.Bytes(), stderr.Bytes(), &ToolError{Tool: name, ExitCode: code, Stderr: tail, Err: err}
	}

	logger.Debug("exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// tailString keeps the last max bytes, where tool diagnostics usually are.
func tailString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
