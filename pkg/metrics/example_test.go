package metrics_test

import (
	"fmt"

	"github.com/matzehuels/depweight/pkg/metrics"
)

func ExampleSum() {
	loc := metrics.LOCReport{TotalLOC: 120, LanguageLOC: 100}
	r := metrics.Sum(
		metrics.PackageMetrics{Key: "itoa@1.0.9", LOC: loc},
		metrics.PackageMetrics{Key: "ryu@1.0.15", LOC: loc, Unsafe: metrics.Analyzed(metrics.UnsafeUsageReport{
			Used: metrics.UnsafeDetails{Expressions: 12},
		})},
	)
	fmt.Println("deps:", r.TotalCount)
	fmt.Println("loc:", r.SummedLOC.TotalLOC, r.SummedLOC.LanguageLOC)
	fmt.Println("scanned:", r.CountScannedForUnsafe, "using unsafe:", r.CountUsingUnsafe)
	// Output:
	// deps: 2
	// loc: 240 200
	// scanned: 1 using unsafe: 1
}
