package pkggraph

import (
	"path/filepath"
	"strings"
)

// PackageID identifies a package. Two different versions of the same name
// are distinct packages.
type PackageID struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source,omitempty"` // Registry or git URL; empty for path packages
}

// Key returns the unique graph identity: "name@version", followed by
// "#source" when a source is set.
func (id PackageID) Key() string {
	if id.Source == "" {
		return id.NameVersion()
	}
	return id.NameVersion() + "#" + id.Source
}

// NameVersion returns "name@version". This is the key the unsafe-code
// scanner reports packages under.
func (id PackageID) NameVersion() string {
	return id.Name + "@" + id.Version
}

// String implements fmt.Stringer.
func (id PackageID) String() string { return id.NameVersion() }

// ParseKey is the inverse of [PackageID.Key].
func ParseKey(key string) (PackageID, bool) {
	nv, source, _ := strings.Cut(key, "#")
	at := strings.LastIndex(nv, "@")
	if at <= 0 || at == len(nv)-1 {
		return PackageID{}, false
	}
	return PackageID{Name: nv[:at], Version: nv[at+1:], Source: source}, true
}

// Package holds the attributes of one resolved package.
type Package struct {
	ID             PackageID `json:"id"`
	ManifestPath   string    `json:"manifest_path"`
	HasBuildScript bool      `json:"has_build_script,omitempty"`
	Workspace      bool      `json:"workspace,omitempty"` // Member of the analyzed workspace
}

// SourceDir returns the directory holding the package's manifest, which is
// the directory line counting starts from.
func (p *Package) SourceDir() string {
	return filepath.Dir(p.ManifestPath)
}

// FromRegistry reports whether the package was downloaded from a registry.
// Registry sources never change for a given version, so their metrics can
// be cached across runs.
func (p *Package) FromRegistry() bool {
	return strings.HasPrefix(p.ID.Source, "registry+") || strings.HasPrefix(p.ID.Source, "sparse+")
}
