package geiger

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/depweight/pkg/errors"
)

// Scanner runs the unsafe-code scanner against one package manifest.
type Scanner interface {
	Scan(ctx context.Context, manifestPath string) (*Report, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(ctx context.Context, manifestPath string) (*Report, error)

// Scan implements Scanner.
func (f ScannerFunc) Scan(ctx context.Context, manifestPath string) (*Report, error) {
	return f(ctx, manifestPath)
}

// Command runs cargo-geiger as a subprocess.
type Command struct {
	// Cargo is the cargo binary. Defaults to "cargo" on PATH.
	Cargo string
	// Timeout bounds each invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Args are extra arguments appended after the manifest path.
	Args []string
}

// Scan implements Scanner. The manifest path is made absolute, since the
// scanner rejects relative paths.
func (c *Command) Scan(ctx context.Context, manifestPath string) (*Report, error) {
	if err := errors.ValidateManifestPath(manifestPath); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "resolve %s", manifestPath)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cargo := c.Cargo
	if cargo == "" {
		cargo = "cargo"
	}
	args := append([]string{"geiger", "--output-format", "Json", "--manifest-path", abs}, c.Args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cargo, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeScannerFailure, ctx.Err(), "scan %s: timed out after %s", abs, c.Timeout)
		}
		return nil, errors.Wrap(errors.ErrCodeScannerFailure, err, "scan %s: %s", abs, lastLine(stderr.String()))
	}

	rep, err := Decode(&stdout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScannerFailure, err, "scan %s", abs)
	}
	return rep, nil
}

// lastLine returns the last non-empty line of s. cargo prints its error
// summary last.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var _ Scanner = (*Command)(nil)
