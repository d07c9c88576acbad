// Package metrics defines the per-package measurements depweight collects and
// the roll-up report that aggregates them over a set of packages.
//
// Every report type here is an additive monoid: the zero value is the
// identity and Add/Combine is associative and commutative. That is what
// lets the report assembler sum the same per-package numbers into many
// overlapping dependency sets without caring about order.
package metrics

import (
	"bytes"
	"encoding/json"
)

// LOCReport counts code lines, excluding blank and comment lines.
type LOCReport struct {
	TotalLOC    uint64 `json:"total_loc"`    // All recognised languages
	LanguageLOC uint64 `json:"language_loc"` // Primary language only (Rust by default)
}

// Add returns the field-wise sum of r and o.
func (r LOCReport) Add(o LOCReport) LOCReport {
	return LOCReport{
		TotalLOC:    r.TotalLOC + o.TotalLOC,
		LanguageLOC: r.LanguageLOC + o.LanguageLOC,
	}
}

// UnsafeDetails counts unsafe items of each kind found by the scanner.
type UnsafeDetails struct {
	Functions   uint64 `json:"functions"`
	Expressions uint64 `json:"expressions"`
	Impls       uint64 `json:"impls"`
	Traits      uint64 `json:"traits"`
	Methods     uint64 `json:"methods"`
}

// Add returns the field-wise sum of d and o.
func (d UnsafeDetails) Add(o UnsafeDetails) UnsafeDetails {
	return UnsafeDetails{
		Functions:   d.Functions + o.Functions,
		Expressions: d.Expressions + o.Expressions,
		Impls:       d.Impls + o.Impls,
		Traits:      d.Traits + o.Traits,
		Methods:     d.Methods + o.Methods,
	}
}

// IsZero reports whether every counter is zero.
func (d UnsafeDetails) IsZero() bool { return d == UnsafeDetails{} }

// UnsafeUsageReport is the scanner's verdict for one package.
// Used counts unsafe items compiled into the build; Unused counts items in
// files that were not part of the build.
type UnsafeUsageReport struct {
	ForbidsUnsafe bool          `json:"forbids_unsafe"`
	Used          UnsafeDetails `json:"used_unsafe_count"`
	Unused        UnsafeDetails `json:"unused_unsafe_count"`
}

// UsesUnsafe reports whether the package both permits unsafe code and
// contains at least one used unsafe expression.
func (r UnsafeUsageReport) UsesUnsafe() bool {
	return !r.ForbidsUnsafe && r.Used.Expressions > 0
}

// Unsafe is either an analyzed [UnsafeUsageReport] or the explicit absence of
// one. A package the scanner never reported is NotAnalyzed, which is not the
// same thing as an analyzed report with all-zero counts.
//
// The zero value is NotAnalyzed.
type Unsafe struct {
	report  UnsafeUsageReport
	present bool
}

// Analyzed wraps a scanner report.
func Analyzed(r UnsafeUsageReport) Unsafe { return Unsafe{report: r, present: true} }

// NotAnalyzed returns the absent state.
func NotAnalyzed() Unsafe { return Unsafe{} }

// Get returns the report and whether it is present.
func (u Unsafe) Get() (UnsafeUsageReport, bool) { return u.report, u.present }

// IsAnalyzed reports whether a scanner report is present.
func (u Unsafe) IsAnalyzed() bool { return u.present }

// MarshalJSON encodes an absent report as null.
func (u Unsafe) MarshalJSON() ([]byte, error) {
	if !u.present {
		return []byte("null"), nil
	}
	return json.Marshal(u.report)
}

// UnmarshalJSON decodes null as NotAnalyzed and anything else as Analyzed.
func (u *Unsafe) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*u = NotAnalyzed()
		return nil
	}
	var r UnsafeUsageReport
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*u = Analyzed(r)
	return nil
}
