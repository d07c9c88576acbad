package pkggraph

import (
	"slices"

	"github.com/matzehuels/depweight/pkg/dag"
	"github.com/matzehuels/depweight/pkg/errors"
)

// Graph is an immutable dependency graph over packages.
//
// The zero value is not usable - use a [Builder] or one of the loaders.
// Once built, a Graph is safe for concurrent reads.
type Graph struct {
	dag      *dag.DAG
	packages map[string]*Package
}

// Builder assembles a Graph. Builders are single-use.
type Builder struct {
	g   *Graph
	err error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{dag: dag.New(nil), packages: make(map[string]*Package)}}
}

// AddPackage registers a package. The package's identity is validated and
// must be unique.
func (b *Builder) AddPackage(p Package) *Builder {
	if b.err != nil {
		return b
	}
	if err := errors.ValidatePackageName(p.ID.Name); err != nil {
		b.err = err
		return b
	}
	if err := errors.ValidateVersion(p.ID.Version); err != nil {
		b.err = err
		return b
	}
	key := p.ID.Key()
	if err := b.g.dag.AddNode(dag.Node{ID: key}); err != nil {
		b.err = errors.Wrap(errors.ErrCodeInvalidGraph, err, "package %s", key)
		return b
	}
	b.g.packages[key] = &p
	return b
}

// AddDependency records that from depends on to. Both must already be added.
func (b *Builder) AddDependency(from, to PackageID) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.g.dag.AddEdge(dag.Edge{From: from.Key(), To: to.Key()}); err != nil {
		b.err = errors.Wrap(errors.ErrCodeInvalidGraph, err, "dependency %s -> %s", from.Key(), to.Key())
	}
	return b
}

// Build returns the graph, or the first error encountered while building.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := b.g
	b.g = nil
	return g, nil
}

// Len returns the number of packages.
func (g *Graph) Len() int { return len(g.packages) }

// Package returns the package with the given identity.
func (g *Graph) Package(id PackageID) (*Package, error) {
	p, ok := g.packages[id.Key()]
	if !ok {
		return nil, notFound(id)
	}
	return p, nil
}

// Packages returns every package sorted by key.
func (g *Graph) Packages() []*Package {
	return g.lookup(dag.NodeIDs(g.dag.Nodes()))
}

// WorkspaceRoots returns the members of the analyzed workspace: the packages
// that are build targets of the project rather than external dependencies.
func (g *Graph) WorkspaceRoots() []*Package {
	var roots []*Package
	for _, p := range g.Packages() {
		if p.Workspace {
			roots = append(roots, p)
		}
	}
	return roots
}

// TransitiveDependencies returns every package reachable from id by
// following dependency edges, excluding id itself.
func (g *Graph) TransitiveDependencies(id PackageID) ([]*Package, error) {
	if !g.dag.Has(id.Key()) {
		return nil, notFound(id)
	}
	return g.lookup(g.dag.Reachable(id.Key())), nil
}

// DirectDependents returns the packages that depend directly on id.
func (g *Graph) DirectDependents(id PackageID) ([]*Package, error) {
	if !g.dag.Has(id.Key()) {
		return nil, notFound(id)
	}
	return g.lookup(sorted(g.dag.Parents(id.Key()))), nil
}

// DirectDependencies returns the packages id depends on directly.
func (g *Graph) DirectDependencies(id PackageID) ([]*Package, error) {
	if !g.dag.Has(id.Key()) {
		return nil, notFound(id)
	}
	return g.lookup(sorted(g.dag.Children(id.Key()))), nil
}

// WorkspaceDependencies returns the external packages that some workspace
// member depends on directly. These are the packages a project owner chose
// to add and the unit depweight reports on.
func (g *Graph) WorkspaceDependencies() []*Package {
	seen := make(map[string]bool)
	var keys []string
	for _, root := range g.WorkspaceRoots() {
		for _, child := range g.dag.Children(root.ID.Key()) {
			if g.packages[child].Workspace || seen[child] {
				continue
			}
			seen[child] = true
			keys = append(keys, child)
		}
	}
	return g.lookup(sorted(keys))
}

// ExternalPackages returns every package that is not a workspace member.
func (g *Graph) ExternalPackages() []*Package {
	var out []*Package
	for _, p := range g.Packages() {
		if !p.Workspace {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports a cycle in the graph, if any.
func (g *Graph) Validate() error {
	if err := g.dag.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "dependency graph")
	}
	return nil
}

func (g *Graph) lookup(keys []string) []*Package {
	out := make([]*Package, len(keys))
	for i, k := range keys {
		out[i] = g.packages[k]
	}
	return out
}

func sorted(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return out
}

func notFound(id PackageID) error {
	return errors.New(errors.ErrCodePackageNotFound, "package %s not in graph", id.Key())
}

// IDs returns the identities of pkgs in the same order.
func IDs(pkgs []*Package) []PackageID {
	ids := make([]PackageID, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	return ids
}
