// Package analysis assembles per-dependency code reports.
//
// For each direct dependency of a workspace, an [Analyzer] reports:
//
//   - the dependency's own line counts and unsafe-code usage
//   - a roll-up over every package it pulls in transitively
//   - a roll-up over the subset it pulls in exclusively (see package
//     ownership), which is what removing the dependency would save
//
// # Run Structure
//
// [Analyzer.Analyze] first runs the unsafe-code scanner once per workspace
// member and merges the results into the shared [memo.Store]. It then
// assembles reports in parallel. Line counts are computed lazily through
// the store, so a package shared by many dependencies is counted once.
//
// A run either succeeds completely or fails with an error naming the
// package and the step that failed. No partial report list is returned.
package analysis
