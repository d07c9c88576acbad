package pkggraph

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/depweight/pkg/errors"
)

// document is depweight's native graph serialization format.
type document struct {
	Packages []Package     `json:"packages"`
	Edges    []documentEdge `json:"edges"`
}

type documentEdge struct {
	From string `json:"from"` // PackageID.Key of the dependent
	To   string `json:"to"`   // PackageID.Key of the dependency
}

// ReadJSON decodes a graph in depweight's native format:
//
//	{
//	  "packages": [
//	    {"id": {"name": "app", "version": "0.1.0"}, "manifest_path": "/src/app/Cargo.toml", "workspace": true},
//	    {"id": {"name": "libc", "version": "0.2.150", "source": "registry+https://github.com/rust-lang/crates.io-index"},
//	     "manifest_path": "/cargo/registry/src/libc-0.2.150/Cargo.toml", "has_build_script": true}
//	  ],
//	  "edges": [{"from": "app@0.1.0", "to": "libc@0.2.150#registry+https://github.com/rust-lang/crates.io-index"}]
//	}
//
// Edge endpoints are package keys as returned by [PackageID.Key].
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}

	b := NewBuilder()
	for _, p := range doc.Packages {
		b.AddPackage(p)
	}
	for _, e := range doc.Edges {
		from, ok := ParseKey(e.From)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %s->%s: malformed source key", e.From, e.To)
		}
		to, ok := ParseKey(e.To)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %s->%s: malformed target key", e.From, e.To)
		}
		b.AddDependency(from, to)
	}
	return b.Build()
}

// ImportJSON reads a graph file in the native format.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes g in the native format. Packages and edges are sorted
// for deterministic output.
func WriteJSON(g *Graph, w io.Writer) error {
	doc := document{Packages: make([]Package, 0, g.Len())}
	for _, p := range g.Packages() {
		doc.Packages = append(doc.Packages, *p)
		for _, child := range sorted(g.dag.Children(p.ID.Key())) {
			doc.Edges = append(doc.Edges, documentEdge{From: p.ID.Key(), To: child})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode graph")
	}
	return nil
}
