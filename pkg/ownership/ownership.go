package ownership

import (
	"slices"
	"strings"

	"github.com/matzehuels/depweight/pkg/pkggraph"
)

// Graph is the subset of [pkggraph.Graph] ownership needs.
type Graph interface {
	DirectDependents(id pkggraph.PackageID) ([]*pkggraph.Package, error)
	DirectDependencies(id pkggraph.PackageID) ([]*pkggraph.Package, error)
}

// Result splits a dependency set into the packages a root owns and the
// packages it shares with the rest of the graph. Both slices are sorted by
// key and together hold every member of the input set exactly once.
type Result struct {
	Exclusive []pkggraph.PackageID
	Shared    []pkggraph.PackageID
}

// Partition classifies every member of deps relative to root.
//
// Duplicate entries in deps are collapsed, and root is ignored if it appears
// in deps. Any identity missing from g yields a PACKAGE_NOT_FOUND error.
func Partition(g Graph, root pkggraph.PackageID, deps []pkggraph.PackageID) (Result, error) {
	if _, err := g.DirectDependencies(root); err != nil {
		return Result{}, err
	}
	rootKey := root.Key()
	members := make(map[string]pkggraph.PackageID, len(deps)+1)
	members[rootKey] = root
	for _, d := range deps {
		members[d.Key()] = d
	}

	shared := make(map[string]bool)
	var queue []pkggraph.PackageID
	for key, d := range members {
		if key == rootKey {
			continue
		}
		dependents, err := g.DirectDependents(d)
		if err != nil {
			return Result{}, err
		}
		for _, p := range dependents {
			if _, ok := members[p.ID.Key()]; !ok {
				shared[key] = true
				queue = append(queue, d)
				break
			}
		}
	}

	for len(queue) > 0 {
		d := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		children, err := g.DirectDependencies(d)
		if err != nil {
			return Result{}, err
		}
		for _, c := range children {
			key := c.ID.Key()
			if _, ok := members[key]; !ok || key == rootKey || shared[key] {
				continue
			}
			shared[key] = true
			queue = append(queue, c.ID)
		}
	}

	var res Result
	for key, d := range members {
		switch {
		case key == rootKey:
		case shared[key]:
			res.Shared = append(res.Shared, d)
		default:
			res.Exclusive = append(res.Exclusive, d)
		}
	}
	sortIDs(res.Exclusive)
	sortIDs(res.Shared)
	return res, nil
}

// Exclusive returns the members of deps that only root pulls in.
func Exclusive(g Graph, root pkggraph.PackageID, deps []pkggraph.PackageID) ([]pkggraph.PackageID, error) {
	res, err := Partition(g, root, deps)
	if err != nil {
		return nil, err
	}
	return res.Exclusive, nil
}

func sortIDs(ids []pkggraph.PackageID) {
	slices.SortFunc(ids, func(a, b pkggraph.PackageID) int {
		return strings.Compare(a.Key(), b.Key())
	})
}
