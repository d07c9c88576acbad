package geiger

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

// Report mirrors `cargo geiger --output-format Json`.
type Report struct {
	Packages []PackageInfo `json:"packages"`
	// Files the build used that the scanner could not attribute to a package.
	UnscannedFiles []string `json:"used_but_not_scanned_files"`
}

// PackageInfo is the scanner's record for one package.
type PackageInfo struct {
	Package struct {
		ID struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"id"`
	} `json:"package"`
	Unsafety Unsafety `json:"unsafety"`
}

// ID returns the package identity the record was reported under. The
// scanner does not report sources, so the identity has none.
func (p PackageInfo) ID() pkggraph.PackageID {
	return pkggraph.PackageID{Name: p.Package.ID.Name, Version: p.Package.ID.Version}
}

// Unsafety holds unsafe-code counts for code the build uses and code it
// does not.
type Unsafety struct {
	Used          UnsafeInfo `json:"used"`
	Unused        UnsafeInfo `json:"unused"`
	ForbidsUnsafe bool       `json:"forbids_unsafe"`
}

// UnsafeInfo counts items by kind.
type UnsafeInfo struct {
	Functions  UnsafeCount `json:"functions"`
	Exprs      UnsafeCount `json:"exprs"`
	ItemImpls  UnsafeCount `json:"item_impls"`
	ItemTraits UnsafeCount `json:"item_traits"`
	Methods    UnsafeCount `json:"methods"`
}

// UnsafeCount splits a count into safe and unsafe items.
type UnsafeCount struct {
	Safe   uint64 `json:"safe"`
	Unsafe uint64 `json:"unsafe_"`
}

// Details keeps the unsafe half of every count.
func (u UnsafeInfo) Details() metrics.UnsafeDetails {
	return metrics.UnsafeDetails{
		Functions:   u.Functions.Unsafe,
		Expressions: u.Exprs.Unsafe,
		Impls:       u.ItemImpls.Unsafe,
		Traits:      u.ItemTraits.Unsafe,
		Methods:     u.Methods.Unsafe,
	}
}

// UsageReport converts the record to depweight's report type.
func (p PackageInfo) UsageReport() metrics.UnsafeUsageReport {
	return metrics.UnsafeUsageReport{
		ForbidsUnsafe: p.Unsafety.ForbidsUnsafe,
		Used:          p.Unsafety.Used.Details(),
		Unused:        p.Unsafety.Unused.Details(),
	}
}

// Decode reads a scanner report.
func Decode(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode scanner output: %w", err)
	}
	if rep.Packages == nil {
		return nil, fmt.Errorf("decode scanner output: no packages field")
	}
	return &rep, nil
}
