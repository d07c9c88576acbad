package geiger

import (
	"context"
	"time"

	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/observability"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

// Merger receives scanner records. [memo.Store] implements it.
type Merger interface {
	MergeUnsafe(id pkggraph.PackageID, r metrics.UnsafeUsageReport) bool
}

// WarmStats describes a completed warm-up.
type WarmStats struct {
	Roots          int // Scanner invocations
	Records        int // Package records returned across all invocations
	Merged         int // Records stored; the rest were duplicates
	UnscannedFiles int // Files the scanner could not attribute
}

// Warm scans each manifest in order and merges every record into m.
// The first failure aborts the warm-up and is returned as SCANNER_FAILURE;
// records merged before the failure stay in m, but callers must treat the
// run as failed.
func Warm(ctx context.Context, s Scanner, m Merger, manifests []string) (WarmStats, error) {
	var stats WarmStats
	for _, manifest := range manifests {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		observability.Analysis().OnScanStart(ctx, manifest)
		start := time.Now()
		rep, err := s.Scan(ctx, manifest)
		records := 0
		if rep != nil {
			records = len(rep.Packages)
		}
		observability.Analysis().OnScanComplete(ctx, manifest, records, time.Since(start), err)
		if err != nil {
			if errors.Is(err, errors.ErrCodeScannerFailure) || ctx.Err() != nil {
				return stats, err
			}
			return stats, errors.Wrap(errors.ErrCodeScannerFailure, err, "scan %s", manifest)
		}
		if rep == nil {
			return stats, errors.New(errors.ErrCodeScannerFailure, "scan %s: no report", manifest)
		}

		stats.Roots++
		stats.Records += records
		stats.UnscannedFiles += len(rep.UnscannedFiles)
		for _, p := range rep.Packages {
			if m.MergeUnsafe(p.ID(), p.UsageReport()) {
				stats.Merged++
			}
		}
	}
	return stats, nil
}
