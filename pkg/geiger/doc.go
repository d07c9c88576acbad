// Package geiger adapts the cargo-geiger unsafe-code scanner.
//
// cargo-geiger cannot target a virtual workspace manifest, so [Warm] runs it
// once per workspace member manifest and merges the per-package records into
// a [memo.Store]. A package scanned by several members keeps the first
// record seen; later records are dropped without comparison.
//
// Scanner failures (non-zero exit, unparsable output) abort the run. They
// are never retried.
//
// The [Scanner] interface keeps the process boundary narrow so analysis can
// be tested without cargo installed.
package geiger
