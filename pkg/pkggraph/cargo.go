package pkggraph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/depweight/pkg/errors"
)

// cargoMetadata mirrors the parts of `cargo metadata --format-version 1`
// output that the graph needs.
type cargoMetadata struct {
	Packages         []cargoPackage `json:"packages"`
	WorkspaceMembers []string       `json:"workspace_members"`
	Resolve          *struct {
		Nodes []cargoNode `json:"nodes"`
	} `json:"resolve"`
}

type cargoPackage struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Source       *string       `json:"source"`
	ManifestPath string        `json:"manifest_path"`
	Targets      []cargoTarget `json:"targets"`
}

type cargoTarget struct {
	Kind []string `json:"kind"`
}

type cargoNode struct {
	ID           string   `json:"id"`
	Dependencies []string `json:"dependencies"`
	Deps         []struct {
		Pkg string `json:"pkg"`
	} `json:"deps"`
}

// ReadCargoMetadata decodes the JSON printed by
// `cargo metadata --format-version 1`. Every resolved dependency edge is
// kept, including build and dev dependencies. Packages with a
// "custom-build" target have a build script.
//
// Metadata produced with --no-deps has no resolve section and is rejected.
func ReadCargoMetadata(r io.Reader) (*Graph, error) {
	var meta cargoMetadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode cargo metadata")
	}
	if meta.Resolve == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "cargo metadata has no resolve graph (was it run with --no-deps?)")
	}

	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}

	ids := make(map[string]PackageID, len(meta.Packages))
	b := NewBuilder()
	for _, cp := range meta.Packages {
		if err := errors.ValidateManifestPath(cp.ManifestPath); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "package %s", cp.ID)
		}
		id := PackageID{Name: cp.Name, Version: cp.Version}
		if cp.Source != nil {
			id.Source = *cp.Source
		}
		ids[cp.ID] = id
		b.AddPackage(Package{
			ID:             id,
			ManifestPath:   cp.ManifestPath,
			HasBuildScript: hasBuildScript(cp.Targets),
			Workspace:      members[cp.ID],
		})
	}

	for _, node := range meta.Resolve.Nodes {
		from, ok := ids[node.ID]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "resolve node %s has no package entry", node.ID)
		}
		for _, dep := range nodeDependencies(node) {
			to, ok := ids[dep]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidGraph, "dependency %s of %s has no package entry", dep, node.ID)
			}
			b.AddDependency(from, to)
		}
	}
	return b.Build()
}

// nodeDependencies prefers the richer "deps" list and falls back to the
// plain "dependencies" id list emitted by older cargo versions.
func nodeDependencies(n cargoNode) []string {
	if len(n.Deps) == 0 {
		return n.Dependencies
	}
	out := make([]string, len(n.Deps))
	for i, d := range n.Deps {
		out[i] = d.Pkg
	}
	return out
}

func hasBuildScript(targets []cargoTarget) bool {
	for _, t := range targets {
		if slices.Contains(t.Kind, "custom-build") {
			return true
		}
	}
	return false
}

// CargoMetadata runs `cargo metadata` for the project in dir and decodes its
// output. The cargo binary must be on PATH.
func CargoMetadata(ctx context.Context, dir string) (*Graph, error) {
	manifest, err := filepath.Abs(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve path %s", dir)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "cargo", "metadata", "--format-version", "1", "--manifest-path", manifest)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return nil, errors.Wrap(errors.ErrCodeResolver, err, "cargo metadata %s: %s", manifest, msg)
	}
	return ReadCargoMetadata(&stdout)
}
