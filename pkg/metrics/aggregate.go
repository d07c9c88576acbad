package metrics

// PackageMetrics is the per-package input to [Sum].
type PackageMetrics struct {
	Key            string // Unique package identity; duplicates are counted once
	LOC            LOCReport
	HasBuildScript bool
	Unsafe         Unsafe
}

// DependencySetReport rolls up [PackageMetrics] over a set of packages.
// The zero value is the report of the empty set.
type DependencySetReport struct {
	TotalCount            uint64        `json:"total_deps"`
	SummedLOC             LOCReport     `json:"deps_total_loc_report"`
	CountWithBuildScript  uint64        `json:"deps_with_build_script"`
	CountScannedForUnsafe uint64        `json:"deps_analyzed_for_unsafe"`
	CountForbiddingUnsafe uint64        `json:"deps_forbidding_unsafe"`
	CountUsingUnsafe      uint64        `json:"deps_using_unsafe"`
	SummedUsedUnsafe      UnsafeDetails `json:"deps_total_used_unsafe_details"`
}

// Combine returns the report of the union of two disjoint sets.
// Combining reports of overlapping sets double counts the overlap; use [Sum]
// over the merged members instead.
func (r DependencySetReport) Combine(o DependencySetReport) DependencySetReport {
	return DependencySetReport{
		TotalCount:            r.TotalCount + o.TotalCount,
		SummedLOC:             r.SummedLOC.Add(o.SummedLOC),
		CountWithBuildScript:  r.CountWithBuildScript + o.CountWithBuildScript,
		CountScannedForUnsafe: r.CountScannedForUnsafe + o.CountScannedForUnsafe,
		CountForbiddingUnsafe: r.CountForbiddingUnsafe + o.CountForbiddingUnsafe,
		CountUsingUnsafe:      r.CountUsingUnsafe + o.CountUsingUnsafe,
		SummedUsedUnsafe:      r.SummedUsedUnsafe.Add(o.SummedUsedUnsafe),
	}
}

// Of returns the single-member report for p.
//
// Packages without a scanner report still count towards TotalCount and
// SummedLOC but towards none of the unsafe counters. Packages that forbid
// unsafe code add their used counts to SummedUsedUnsafe like any other
// analyzed package; those are normally zero.
func Of(p PackageMetrics) DependencySetReport {
	r := DependencySetReport{
		TotalCount: 1,
		SummedLOC:  p.LOC,
	}
	if p.HasBuildScript {
		r.CountWithBuildScript = 1
	}
	if u, ok := p.Unsafe.Get(); ok {
		r.CountScannedForUnsafe = 1
		if u.ForbidsUnsafe {
			r.CountForbiddingUnsafe = 1
		} else if u.UsesUnsafe() {
			r.CountUsingUnsafe = 1
		}
		r.SummedUsedUnsafe = u.Used
	}
	return r
}

// Sum aggregates the given packages. Entries sharing a Key are counted once
// (the first occurrence wins), so the result depends only on the set of keys
// and not on input order.
func Sum(pkgs ...PackageMetrics) DependencySetReport {
	seen := make(map[string]struct{}, len(pkgs))
	var total DependencySetReport
	for _, p := range pkgs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		total = total.Combine(Of(p))
	}
	return total
}
