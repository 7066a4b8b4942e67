// Package common provides shared plumbing for module adapters that drive
// external CLI tools.
package common

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
)

// OutputHandler processes output from CLI tools line by line.
type OutputHandler interface {
	// ProcessLine handles each line of stdout in real-time.
	ProcessLine(line []byte) error

	// Finalize is called after all lines are processed.
	Finalize() error
}

// BaseCLIModule provides common functionality for modules backed by an
// external binary: binary resolution, subprocess execution with argv-only
// invocation, stderr capture and cleanup.
//
// Usage:
//  1. Embed BaseCLIModule in your module struct
//  2. Call ExecuteCLI() in your Invoke() method with an OutputHandler
//  3. Targets are always passed as positional arguments, never through a shell
type BaseCLIModule struct {
	logger logx.Logger
	tool   string

	mu       sync.Mutex
	execPath string
	cmd      *exec.Cmd
}

// NewBaseCLIModule creates the base for a module driving the given tool.
func NewBaseCLIModule(logger logx.Logger, tool string) *BaseCLIModule {
	return &BaseCLIModule{
		logger: logger.With("tool", tool),
		tool:   tool,
	}
}

// Resolve locates the backing binary in PATH. The lookup is lazy and cached:
// a dry-run never needs the binary installed.
func (b *BaseCLIModule) Resolve() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.execPath != "" {
		return b.execPath, nil
	}

	path, err := exec.LookPath(b.tool)
	if err != nil {
		return "", errors.Wrapf(errors.ErrToolNotAvailable, "%s not found in PATH", b.tool)
	}
	b.execPath = path
	b.logger.Debug("binary resolved", "path", path)
	return path, nil
}

// ExecuteCLI runs the tool with the given argv and streams stdout through the
// handler. Stderr is captured and returned for diagnostics.
//
// Error classification:
//   - missing binary          -> ErrToolNotAvailable
//   - context deadline        -> ErrTimeout
//   - any other exit or pipe  -> ErrToolIO
func (b *BaseCLIModule) ExecuteCLI(ctx context.Context, args []string, handler OutputHandler) (string, error) {
	execPath, err := b.Resolve()
	if err != nil {
		return "", err
	}

	b.logger.Info("executing tool",
		"args", strings.Join(args, " "),
	)

	cmd := exec.CommandContext(ctx, execPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", errors.Wrap(errors.ErrToolIO, "failed to create stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", errors.Wrap(errors.ErrToolIO, "failed to create stderr pipe")
	}

	b.mu.Lock()
	b.cmd = cmd
	b.mu.Unlock()

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(errors.ErrToolIO, "failed to start %s: %v", b.tool, err)
	}

	// Read stderr in background to prevent the subprocess from blocking on a
	// full pipe
	var stderrBytes []byte
	var stderrWg sync.WaitGroup
	stderrWg.Add(1)
	go func() {
		defer stderrWg.Done()
		data, readErr := io.ReadAll(stderr)
		if readErr != nil {
			b.logger.Warn("error reading stderr", "error", readErr.Error())
		}
		stderrBytes = data
	}()

	scanErr := b.ProcessOutput(stdout, handler)

	if err := handler.Finalize(); err != nil {
		b.logger.Warn("handler finalization error", "error", err.Error())
	}

	waitErr := cmd.Wait()
	stderrWg.Wait()

	b.mu.Lock()
	b.cmd = nil
	b.mu.Unlock()

	stderrOutput := string(stderrBytes)
	if len(stderrOutput) > 0 {
		b.logger.Debug("tool stderr", "output", stderrOutput)
	}

	if waitErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return stderrOutput, errors.Wrapf(errors.ErrTimeout, "%s exceeded its deadline", b.tool)
		}
		if ctx.Err() != nil {
			return stderrOutput, ctx.Err()
		}
		return stderrOutput, errors.Wrapf(errors.ErrToolIO, "%s exited with error: %v", b.tool, waitErr)
	}
	if scanErr != nil {
		return stderrOutput, errors.Wrapf(errors.ErrToolIO, "failed reading %s output: %v", b.tool, scanErr)
	}

	b.logger.Debug("tool completed")
	return stderrOutput, nil
}

// ProcessOutput streams stdout through the handler. Useful for modules that
// manage the subprocess themselves (stdin pipelines).
func (b *BaseCLIModule) ProcessOutput(stdout io.Reader, handler OutputHandler) error {
	scanner := bufio.NewScanner(stdout)

	// Large lines are common in JSON-per-line tool output
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := handler.ProcessLine(scanner.Bytes()); err != nil {
			b.logger.Warn("handler error", "error", err.Error())
		}
	}
	return scanner.Err()
}

// Close terminates the subprocess if still running. Safe to call multiple
// times.
func (b *BaseCLIModule) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd != nil && b.cmd.Process != nil {
		proc := b.cmd.Process
		state := b.cmd.ProcessState

		if state == nil || !state.Exited() {
			if err := proc.Signal(os.Interrupt); err != nil && err != os.ErrProcessDone {
				b.logger.Warn("interrupt failed, forcing kill", "error", err.Error())
				if killErr := proc.Kill(); killErr != nil && killErr != os.ErrProcessDone {
					b.logger.Warn("failed to kill process", "error", killErr.Error())
				}
			}
		}
		b.cmd = nil
	}
	return nil
}

// HealthCheck verifies the backing binary is operational.
func (b *BaseCLIModule) HealthCheck(ctx context.Context) error {
	execPath, err := b.Resolve()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, execPath, "-version")
	if err := cmd.Run(); err != nil {
		cmd = exec.CommandContext(ctx, execPath, "-h")
		if err := cmd.Run(); err != nil {
			return errors.Wrapf(errors.ErrToolIO, "%s health check failed: %v", b.tool, err)
		}
	}
	return nil
}

// Tool returns the tool name the module drives.
func (b *BaseCLIModule) Tool() string {
	return b.tool
}

// Logger returns the logger instance.
func (b *BaseCLIModule) Logger() logx.Logger {
	return b.logger
}

// LineCollector is an OutputHandler that accumulates every non-empty line.
type LineCollector struct {
	Lines []string
}

// ProcessLine implements OutputHandler.
func (c *LineCollector) ProcessLine(line []byte) error {
	trimmed := strings.TrimSpace(string(line))
	if trimmed != "" {
		c.Lines = append(c.Lines, trimmed)
	}
	return nil
}

// Finalize implements OutputHandler.
func (c *LineCollector) Finalize() error {
	return nil
}

// DiscardHandler is an OutputHandler for tools whose useful output goes to
// files instead of stdout.
type DiscardHandler struct{}

func (DiscardHandler) ProcessLine(line []byte) error { return nil }
func (DiscardHandler) Finalize() error               { return nil }

// EnsureOutputDir creates the directory a module writes its files into.
func EnsureOutputDir(dir string) error {
	if dir == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "output directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrToolIO, "failed to create output dir %s: %v", dir, err)
	}
	return nil
}
