package bridge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

const (
	// DefaultTimeout is the default bridge execution timeout in seconds.
	DefaultTimeout = 60

	// MaxTimeout is the maximum allowed bridge execution timeout.
	MaxTimeout = 600

	// MaxOutputSize caps captured stdout/stderr per stream. An
	// uncompressed 4K PNG base64-encodes to tens of megabytes, so the
	// cap sits well above that.
	MaxOutputSize = 64 * 1024 * 1024
)

// ExecResult is the raw outcome of one bridge invocation. A non-zero
// exit code is not an error here: the bridge routinely exits non-zero
// while still having written a perfectly good sentinel.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner executes generated bridge scripts.
type Runner interface {
	Run(ctx context.Context, script Script) (*ExecResult, error)
}

// Executor runs generated scripts through the interop bridge binary.
type Executor struct {
	bin     string
	timeout time.Duration
	log     *slog.Logger
}

// NewExecutor creates an Executor for the given bridge binary.
// timeoutSeconds outside (0, MaxTimeout] falls back to DefaultTimeout.
func NewExecutor(bin string, timeoutSeconds int) *Executor {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeout
	}
	if timeoutSeconds > MaxTimeout {
		timeoutSeconds = MaxTimeout
	}
	return &Executor{
		bin:     bin,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		log:     logging.L("bridge"),
	}
}

// Run executes the script and captures both output streams, bounded by
// MaxOutputSize each. The script travels as one -EncodedCommand block.
// On timeout the whole bridge process group is killed so no orphaned
// Windows-side children linger.
func (e *Executor) Run(ctx context.Context, script Script) (*ExecResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.bin,
		"-NoProfile", "-NonInteractive", "-EncodedCommand", script.EncodedCommand())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxOutputSize}

	// Own process group so children die with the parent on timeout
	setProcessGroup(cmd)

	e.log.Debug("running bridge script", "purpose", script.Purpose(), "scriptBytes", len(script.Body()))

	err := cmd.Run()

	result := &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if killErr := killProcessGroup(cmd); killErr != nil {
				e.log.Warn("failed to kill bridge process group", "error", killErr)
			}
			result.TimedOut = true
			result.ExitCode = -1
			e.log.Warn("bridge script timed out",
				"purpose", script.Purpose(), "timeout", e.timeout)
			return result, fmt.Errorf("bridge timed out after %s", e.timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			// Tolerated: sentinel parsing decides what this means.
			result.ExitCode = exitErr.ExitCode()
			e.log.Debug("bridge script exited non-zero",
				"purpose", script.Purpose(), "exitCode", result.ExitCode,
				"durationMs", result.Duration.Milliseconds())
			return result, nil
		}
		result.ExitCode = -1
		e.log.Error("bridge invocation failed", "purpose", script.Purpose(), "error", err)
		return result, fmt.Errorf("run bridge %s: %w", e.bin, err)
	}

	e.log.Debug("bridge script completed",
		"purpose", script.Purpose(), "durationMs", result.Duration.Milliseconds(),
		"stdoutBytes", len(result.Stdout))
	return result, nil
}

// limitedWriter wraps a buffer with a size limit
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	written int
}

func (w *limitedWriter) Write(p []byte) (n int, err error) {
	if w.written >= w.limit {
		// Discard additional data but don't error
		return len(p), nil
	}

	remaining := w.limit - w.written
	if len(p) > remaining {
		p = p[:remaining]
	}

	n, err = w.buf.Write(p)
	w.written += n
	return len(p), err // Return original length to avoid short write errors
}
