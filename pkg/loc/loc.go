// Package loc counts lines of code in package source directories.
//
// A line counts when it holds anything besides whitespace and comments.
// Blank lines, line comments (including Rust doc comments, which start with
// "//") and lines entirely inside block comments are excluded. Rust block
// comments nest.
//
// [Walker] skips build output (target/), version-control metadata and any
// path the directory's .gitignore excludes. Files are classified by
// extension; files of unknown type are ignored.
package loc

import (
	"context"

	"github.com/matzehuels/depweight/pkg/metrics"
)

// Counter produces the line-count report for a source directory.
//
// A directory without countable files yields a zero report, not an error.
// A directory that cannot be read is an error.
type Counter interface {
	Count(ctx context.Context, dir string) (metrics.LOCReport, error)
}

// CounterFunc adapts a function to the Counter interface.
type CounterFunc func(ctx context.Context, dir string) (metrics.LOCReport, error)

// Count implements Counter.
func (f CounterFunc) Count(ctx context.Context, dir string) (metrics.LOCReport, error) {
	return f(ctx, dir)
}
