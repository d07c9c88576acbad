// Package memo holds the per-run metrics cache shared by every report an
// analysis assembles.
//
// # Line Counts
//
// [Store.LOCReport] memoizes line counts by canonical source directory.
// Concurrent requests for the same directory collapse into one counter
// invocation, and the result is re-checked inside that invocation, so the
// counter runs at most once per directory for the lifetime of a Store no
// matter how many reports share the package.
//
// [Store.PackageLOC] additionally consults a persistent [cache.Cache] for
// packages downloaded from a registry, whose sources never change for a
// given version. Path and git sources are only memoized in memory.
//
// # Unsafe Reports
//
// Unsafe-usage reports are filled in bulk by the scanner adapter through
// [Store.MergeUnsafe] and read with [Store.UnsafeReport]. Lookups never
// trigger a scan. The first report merged for a package wins; later ones
// are dropped. A package the scanner never reported is
// [metrics.NotAnalyzed], never a zero report.
package memo
