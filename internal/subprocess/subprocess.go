// Package subprocess wraps external decoder/renderer invocations in a
// single abstraction that enforces a deadline, captures stderr, and maps
// exit codes and cancellation onto the pipeline's error taxonomy. This is
// the sole boundary between the core and the media muxer/demuxer
// (spec.md calls it out as an external collaborator reached only at its
// interface).
package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/logging"
)

// Spec describes a single subprocess invocation.
type Spec struct {
	Name    string        // binary name, e.g. "ffmpeg"
	Args    []string
	Timeout time.Duration // 0 means no deadline
	Stdin   []byte        // optional; piped to the process's stdin
}

// Result carries the captured output of a finished invocation.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// Run executes spec under its deadline. onFailure is the taxonomy Kind a
// non-zero exit is reported under; the Ingestor passes KindDecode, the
// renderer passes KindRenderer. A deadline overrun is always KindTimeout.
func Run(ctx context.Context, spec Spec, stage string, onFailure introerr.Kind) (*Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	sublog := logging.With("stage", stage, "cmd", spec.Name)
	sublog.Debug("invoking subprocess", "args", spec.Args)

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	if spec.Stdin != nil {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		sublog.Error("subprocess timed out", "elapsed", elapsed)
		return nil, introerr.New(introerr.KindTimeout, stage,
			fmt.Errorf("%s timed out after %s: %s", spec.Name, spec.Timeout, stderr.String()))
	}

	if err != nil {
		var exitErr *exec.ExitError
		exitCode := -1
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		sublog.Error("subprocess failed", "exit_code", exitCode, "elapsed", elapsed)
		return nil, introerr.New(onFailure, stage,
			fmt.Errorf("%s failed (exit %d): %w: %s", spec.Name, exitCode, err, stderr.String()))
	}

	sublog.Debug("subprocess completed", "elapsed", elapsed)

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}, nil
}

// RemovePartial best-effort deletes a partially written output file after
// a cancelled or failed render, per the spec's cancellation contract.
func RemovePartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
