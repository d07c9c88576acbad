package analysis

import (
	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

// CodeReport is the analysis result for one dependency.
type CodeReport struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Source         string `json:"source,omitempty"`
	IsDirect       bool   `json:"is_direct"`
	HasBuildScript bool   `json:"has_build_script"`

	LOC    metrics.LOCReport `json:"loc_report"`
	Unsafe metrics.Unsafe    `json:"unsafe_report"`

	// Dependencies summarizes every package this one pulls in.
	Dependencies metrics.DependencySetReport `json:"dep_report"`
	// Exclusive summarizes the packages nothing else in the graph needs.
	Exclusive metrics.DependencySetReport `json:"exclusive_dep_report"`
}

// ID returns the identity the report describes.
func (r CodeReport) ID() pkggraph.PackageID {
	return pkggraph.PackageID{Name: r.Name, Version: r.Version, Source: r.Source}
}
