package metrics

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLOCReport_Add(t *testing.T) {
	r := LOCReport{TotalLOC: 120, LanguageLOC: 100}
	assert.Equal(t, LOCReport{TotalLOC: 240, LanguageLOC: 200}, r.Add(r))
	assert.Equal(t, r, r.Add(LOCReport{}))
}

func TestUnsafeDetails_Add(t *testing.T) {
	one := UnsafeDetails{Functions: 1, Expressions: 2, Impls: 3, Traits: 4, Methods: 5}
	sum := one.Add(one)
	assert.Equal(t, UnsafeDetails{Functions: 2, Expressions: 4, Impls: 6, Traits: 8, Methods: 10}, sum)
	assert.True(t, UnsafeDetails{}.IsZero())
	assert.False(t, one.IsZero())
}

func TestUnsafe_AbsentIsNotZero(t *testing.T) {
	absent := NotAnalyzed()
	zero := Analyzed(UnsafeUsageReport{})

	_, ok := absent.Get()
	assert.False(t, ok)
	assert.False(t, Unsafe{}.IsAnalyzed(), "zero value should be NotAnalyzed")

	r, ok := zero.Get()
	assert.True(t, ok)
	assert.Equal(t, UnsafeUsageReport{}, r)
	assert.NotEqual(t, absent, zero)
}

func TestUnsafe_JSON(t *testing.T) {
	type wrapper struct {
		Unsafe Unsafe `json:"unsafe_report"`
	}

	data, err := json.Marshal(wrapper{Unsafe: NotAnalyzed()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"unsafe_report": null}`, string(data))

	in := Analyzed(UnsafeUsageReport{
		ForbidsUnsafe: false,
		Used:          UnsafeDetails{Expressions: 7},
	})
	data, err = json.Marshal(wrapper{Unsafe: in})
	require.NoError(t, err)

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out.Unsafe)

	require.NoError(t, json.Unmarshal([]byte(`{"unsafe_report": null}`), &out))
	assert.False(t, out.Unsafe.IsAnalyzed())
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		pkg  PackageMetrics
		want DependencySetReport
	}{
		{
			name: "not analyzed",
			pkg:  PackageMetrics{Key: "e@1.0.0", LOC: LOCReport{TotalLOC: 10, LanguageLOC: 8}},
			want: DependencySetReport{TotalCount: 1, SummedLOC: LOCReport{TotalLOC: 10, LanguageLOC: 8}},
		},
		{
			name: "forbids unsafe",
			pkg: PackageMetrics{Key: "f@1.0.0", Unsafe: Analyzed(UnsafeUsageReport{
				ForbidsUnsafe: true,
			})},
			want: DependencySetReport{TotalCount: 1, CountScannedForUnsafe: 1, CountForbiddingUnsafe: 1},
		},
		{
			name: "uses unsafe",
			pkg: PackageMetrics{Key: "u@1.0.0", HasBuildScript: true, Unsafe: Analyzed(UnsafeUsageReport{
				Used:   UnsafeDetails{Functions: 1, Expressions: 3},
				Unused: UnsafeDetails{Expressions: 99},
			})},
			want: DependencySetReport{
				TotalCount:            1,
				CountWithBuildScript:  1,
				CountScannedForUnsafe: 1,
				CountUsingUnsafe:      1,
				SummedUsedUnsafe:      UnsafeDetails{Functions: 1, Expressions: 3},
			},
		},
		{
			name: "unsafe functions but no expressions",
			pkg: PackageMetrics{Key: "x@1.0.0", Unsafe: Analyzed(UnsafeUsageReport{
				Used: UnsafeDetails{Functions: 2},
			})},
			want: DependencySetReport{
				TotalCount:            1,
				CountScannedForUnsafe: 1,
				SummedUsedUnsafe:      UnsafeDetails{Functions: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.pkg))
		})
	}
}

func samplePackages() []PackageMetrics {
	return []PackageMetrics{
		{Key: "a@1.0.0", LOC: LOCReport{TotalLOC: 120, LanguageLOC: 100}},
		{Key: "b@0.2.0", LOC: LOCReport{TotalLOC: 50, LanguageLOC: 50}, HasBuildScript: true,
			Unsafe: Analyzed(UnsafeUsageReport{Used: UnsafeDetails{Expressions: 4, Methods: 1}})},
		{Key: "c@3.1.4", LOC: LOCReport{TotalLOC: 7}, Unsafe: Analyzed(UnsafeUsageReport{ForbidsUnsafe: true})},
		{Key: "d@0.0.1", LOC: LOCReport{TotalLOC: 1000, LanguageLOC: 900},
			Unsafe: Analyzed(UnsafeUsageReport{Used: UnsafeDetails{Impls: 2}})},
		{Key: "e@1.0.0", LOC: LOCReport{TotalLOC: 33, LanguageLOC: 30}, HasBuildScript: true},
	}
}

func TestSum_Empty(t *testing.T) {
	assert.Equal(t, DependencySetReport{}, Sum())
}

func TestSum_DisjointUnion(t *testing.T) {
	pkgs := samplePackages()
	a, b := pkgs[:2], pkgs[2:]
	assert.Equal(t, Sum(pkgs...), Sum(a...).Combine(Sum(b...)))
}

func TestSum_Associative(t *testing.T) {
	pkgs := samplePackages()
	x, y, z := Sum(pkgs[0]), Sum(pkgs[1], pkgs[2]), Sum(pkgs[3:]...)
	assert.Equal(t, x.Combine(y).Combine(z), x.Combine(y.Combine(z)))
}

func TestSum_OrderIndependent(t *testing.T) {
	pkgs := samplePackages()
	want := Sum(pkgs...)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]PackageMetrics(nil), pkgs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Sum(shuffled...))
	}
}

func TestSum_DeduplicatesByKey(t *testing.T) {
	pkgs := samplePackages()
	withDup := append(append([]PackageMetrics(nil), pkgs...), pkgs[1], pkgs[3])
	assert.Equal(t, Sum(pkgs...), Sum(withDup...))
}

func TestSum_Totals(t *testing.T) {
	got := Sum(samplePackages()...)
	assert.Equal(t, DependencySetReport{
		TotalCount:            5,
		SummedLOC:             LOCReport{TotalLOC: 1210, LanguageLOC: 1080},
		CountWithBuildScript:  2,
		CountScannedForUnsafe: 3,
		CountForbiddingUnsafe: 1,
		CountUsingUnsafe:      1,
		SummedUsedUnsafe:      UnsafeDetails{Expressions: 4, Methods: 1, Impls: 2},
	}, got)
}

func TestSum_ScannerGap(t *testing.T) {
	// e@1.0.0 was never reported by the scanner.
	gap := PackageMetrics{Key: "e@1.0.0", LOC: LOCReport{TotalLOC: 33, LanguageLOC: 30}}
	got := Sum(gap)

	assert.EqualValues(t, 1, got.TotalCount)
	assert.Equal(t, LOCReport{TotalLOC: 33, LanguageLOC: 30}, got.SummedLOC)
	assert.Zero(t, got.CountScannedForUnsafe)
	assert.Zero(t, got.CountForbiddingUnsafe)
	assert.Zero(t, got.CountUsingUnsafe)
}
