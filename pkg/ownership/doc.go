// Package ownership decides which part of a dependency subtree a package
// owns outright.
//
// # Exclusive Dependencies
//
// Given a root R and a set D of packages R pulls in (normally R's transitive
// dependencies), a member d of D is exclusive to R when removing R from the
// graph would also remove d: nothing outside M = D ∪ {R} depends on d, and
// nothing that is itself shared depends on d. Everything else in D is
// shared.
//
// Sharing only starts at a dependent outside M. A package reached from R
// along several internal paths is still exclusive. Once a package is
// shared, so is everything below it inside D, because those packages stay
// reachable through the shared one.
//
// # Algorithm
//
// [Partition] first marks the seeds: members of D with at least one direct
// dependent outside M. It then floods forward along dependency edges,
// restricted to D, marking every package reached as shared. The result is
// the least fixpoint of the sharing rule, so it does not depend on the order
// of D, and the visited set makes it terminate on graphs with cycles.
//
// Typical use compares each direct dependency of a workspace against the
// rest of the graph:
//
//	deps, _ := g.TransitiveDependencies(id)
//	exclusive, err := ownership.Exclusive(g, id, pkggraph.IDs(deps))
package ownership
