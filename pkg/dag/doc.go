// Package dag provides the adjacency structure that backs a resolved package
// dependency graph.
//
// # Overview
//
// depweight never resolves dependencies itself. An external resolver (for Rust
// projects, `cargo metadata`) produces the graph once per run, and this package
// holds it as plain forward and reverse adjacency lists keyed by node ID. Every
// query the analysis needs - dependencies, dependents, reachability - is a map
// lookup or a bounded traversal over those lists.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Nodes must have unique IDs and edges can only connect
// existing nodes:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "app"})
//	g.AddNode(dag.Node{ID: "serde"})
//	g.AddEdge(dag.Edge{From: "app", To: "serde"})
//
// Query the structure with [DAG.Children], [DAG.Parents] and [DAG.Reachable].
//
// # Cycles
//
// Cargo allows cycles through dev-dependencies, so the graph is not guaranteed
// to be acyclic. [DAG.Reachable] keeps a visited set and terminates on any
// input. Use [DAG.Validate] when a caller needs to reject cyclic graphs.
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata]
// maps. Metadata maps are never nil after creation.
//
// # Concurrency
//
// Building a DAG is not safe for concurrent use. Once built, all read methods
// may be called from multiple goroutines, which is how the report assembler
// uses it.
package dag
