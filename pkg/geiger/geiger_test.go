package geiger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

func loadReport(t *testing.T) *Report {
	t.Helper()
	f, err := os.Open("testdata/report.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rep, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	return rep
}

func TestDecode(t *testing.T) {
	rep := loadReport(t)

	if len(rep.Packages) != 2 {
		t.Fatalf("len(Packages) = %d, want 2", len(rep.Packages))
	}
	if len(rep.UnscannedFiles) != 1 {
		t.Errorf("len(UnscannedFiles) = %d, want 1", len(rep.UnscannedFiles))
	}

	itoa := rep.Packages[1]
	if got := itoa.ID(); got != (pkggraph.PackageID{Name: "itoa", Version: "1.0.9"}) {
		t.Errorf("ID() = %+v", got)
	}
	want := metrics.UnsafeUsageReport{
		ForbidsUnsafe: false,
		Used:          metrics.UnsafeDetails{Functions: 1, Expressions: 42, Impls: 2, Traits: 3, Methods: 4},
		Unused:        metrics.UnsafeDetails{Functions: 5, Expressions: 6, Impls: 7, Traits: 8, Methods: 9},
	}
	if got := itoa.UsageReport(); got != want {
		t.Errorf("UsageReport() = %+v, want %+v", got, want)
	}
	if !rep.Packages[0].UsageReport().ForbidsUnsafe {
		t.Error("app should forbid unsafe")
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, input := range []string{"", "not json", `{"used_but_not_scanned_files": []}`} {
		if _, err := Decode(strings.NewReader(input)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", input)
		}
	}
}

// memStore is a minimal first-wins Merger.
type memStore map[string]metrics.UnsafeUsageReport

func (m memStore) MergeUnsafe(id pkggraph.PackageID, r metrics.UnsafeUsageReport) bool {
	if _, ok := m[id.NameVersion()]; ok {
		return false
	}
	m[id.NameVersion()] = r
	return true
}

func record(name, version string, exprs uint64) PackageInfo {
	var p PackageInfo
	p.Package.ID.Name = name
	p.Package.ID.Version = version
	p.Unsafety.Used.Exprs.Unsafe = exprs
	return p
}

func TestWarm(t *testing.T) {
	reports := map[string]*Report{
		"/w/a/Cargo.toml": {Packages: []PackageInfo{record("a", "0.1.0", 0), record("libc", "0.2.150", 10)}},
		"/w/b/Cargo.toml": {Packages: []PackageInfo{record("b", "0.1.0", 0), record("libc", "0.2.150", 99)}, UnscannedFiles: []string{"x.rs"}},
	}
	var order []string
	scanner := ScannerFunc(func(_ context.Context, manifest string) (*Report, error) {
		order = append(order, manifest)
		return reports[manifest], nil
	})

	store := memStore{}
	stats, err := Warm(context.Background(), scanner, store, []string{"/w/a/Cargo.toml", "/w/b/Cargo.toml"})
	if err != nil {
		t.Fatalf("Warm() error: %v", err)
	}

	if fmt.Sprint(order) != "[/w/a/Cargo.toml /w/b/Cargo.toml]" {
		t.Errorf("scan order = %v", order)
	}
	want := WarmStats{Roots: 2, Records: 4, Merged: 3, UnscannedFiles: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	// First root's record wins.
	if got := store["libc@0.2.150"].Used.Expressions; got != 10 {
		t.Errorf("libc used exprs = %d, want 10", got)
	}
}

func TestWarm_FailureIsFatal(t *testing.T) {
	calls := 0
	scanner := ScannerFunc(func(_ context.Context, manifest string) (*Report, error) {
		calls++
		if manifest == "/w/b/Cargo.toml" {
			return nil, fmt.Errorf("exit status 101")
		}
		return &Report{Packages: []PackageInfo{record("a", "0.1.0", 0)}}, nil
	})

	_, err := Warm(context.Background(), scanner, memStore{}, []string{"/w/a/Cargo.toml", "/w/b/Cargo.toml", "/w/c/Cargo.toml"})
	if !errors.Is(err, errors.ErrCodeScannerFailure) {
		t.Fatalf("Warm() error = %v, want SCANNER_FAILURE", err)
	}
	if calls != 2 {
		t.Errorf("scanner called %d times, want 2 (no retry, no further roots)", calls)
	}
}

func TestWarm_NoManifests(t *testing.T) {
	scanner := ScannerFunc(func(context.Context, string) (*Report, error) {
		t.Fatal("scanner should not run")
		return nil, nil
	})
	stats, err := Warm(context.Background(), scanner, memStore{}, nil)
	if err != nil || stats != (WarmStats{}) {
		t.Errorf("Warm(nil) = %+v, %v", stats, err)
	}
}

// fakeCargo writes a shell script standing in for cargo.
func fakeCargo(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "cargo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func manifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("[package]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommand_Scan(t *testing.T) {
	data, err := os.ReadFile("testdata/report.json")
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &Command{Cargo: fakeCargo(t, "cat "+out+"\n")}
	rep, err := cmd.Scan(context.Background(), manifest(t))
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(rep.Packages) != 2 {
		t.Errorf("len(Packages) = %d, want 2", len(rep.Packages))
	}
}

func TestCommand_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
	}{
		{"non-zero exit", "echo 'error: could not compile' >&2\nexit 101\n", 0},
		{"unparsable output", "echo 'warning: not json'\n", 0},
		{"timeout", "exec sleep 5\n", 50 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &Command{Cargo: fakeCargo(t, tt.script), Timeout: tt.timeout}
			_, err := cmd.Scan(context.Background(), manifest(t))
			if !errors.Is(err, errors.ErrCodeScannerFailure) {
				t.Errorf("Scan() error = %v, want SCANNER_FAILURE", err)
			}
		})
	}
}

func TestCommand_InvalidManifest(t *testing.T) {
	cmd := &Command{Cargo: "/nonexistent/cargo"}
	_, err := cmd.Scan(context.Background(), "/w/a/package.json")
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("Scan() error = %v, want INVALID_MANIFEST", err)
	}
}
