// Package pkggraph provides read-only queries over a resolved package
// dependency graph.
//
// # Overview
//
// The graph is produced once, before analysis starts, by an external resolver.
// For Rust workspaces that resolver is `cargo metadata`; [ReadCargoMetadata]
// decodes its output and [ReadJSON] decodes depweight's own graph format.
// Either way the result is a [Graph]: a [dag.DAG] keyed by [PackageID.Key]
// plus the per-package attributes the analysis needs (manifest path,
// build-script presence, workspace membership).
//
// # Queries
//
//   - [Graph.WorkspaceRoots]: members of the analyzed workspace
//   - [Graph.TransitiveDependencies]: every package reachable from a node
//   - [Graph.DirectDependents]: immediate reverse edges
//   - [Graph.DirectDependencies]: immediate forward edges
//   - [Graph.WorkspaceDependencies]: external packages a member depends on directly
//
// All queries return plain sorted slices and fail with a PACKAGE_NOT_FOUND
// error from [github.com/matzehuels/depweight/pkg/errors] when the identity
// is not in the graph.
//
// # Identity
//
// Two versions of the same crate are different packages. A [PackageID] is
// name, version and (optionally) source; its [PackageID.Key] is the graph
// node ID.
//
// [dag.DAG]: github.com/matzehuels/depweight/pkg/dag
package pkggraph
