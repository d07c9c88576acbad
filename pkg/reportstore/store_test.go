package reportstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/depweight/pkg/analysis"
	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/metrics"
)

func sampleReports() []analysis.CodeReport {
	return []analysis.CodeReport{
		{
			Name:     "serde",
			Version:  "1.0.193",
			IsDirect: true,
			LOC:      metrics.LOCReport{TotalLOC: 900, LanguageLOC: 880},
			Unsafe:   metrics.Analyzed(metrics.UnsafeUsageReport{ForbidsUnsafe: true}),
		},
		{
			Name:         "rand",
			Version:      "0.8.5",
			IsDirect:     true,
			Dependencies: metrics.DependencySetReport{TotalCount: 4},
		},
	}
}

// testStore runs the shared Store contract against s.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	older := NewRun("app", analysis.Options{}, sampleReports())
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := NewRun("app", analysis.Options{SkipUnsafe: true}, sampleReports()[:1])

	for _, r := range []*Run{older, newer} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s): %v", r.ID, err)
		}
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Project != "app" || len(got.Reports) != 2 {
		t.Errorf("Get = %+v", got)
	}
	serde, ok := got.Report("serde", "")
	if !ok {
		t.Fatal("serde report missing")
	}
	if !serde.Unsafe.IsAnalyzed() {
		t.Error("unsafe report lost in storage")
	}
	rand, _ := got.Report("rand", "0.8.5")
	if rand.Unsafe.IsAnalyzed() {
		t.Error("absent unsafe report must stay absent")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("List = %+v, want newest first", list)
	}
	if list[1].Reports != 2 {
		t.Errorf("summary report count = %d, want 2", list[1].Reports)
	}

	if _, err := s.Get(ctx, "2b7e1d4a-0000-4000-8000-000000000000"); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get(unknown) error = %v, want RUN_NOT_FOUND", err)
	}
	if _, err := s.Get(ctx, "../../etc/passwd"); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get(traversal) error = %v, want RUN_NOT_FOUND", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range [][2]string{
		{"notes.json", "{}"},
		{"2b7e1d4a-0000-4000-8000-000000000001.json", "{broken"},
		{"README", "hello"},
	} {
		if err := os.WriteFile(filepath.Join(dir, f[0]), []byte(f[1]), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %+v, want empty", list)
	}
}

func TestFileStore_SaveRejectsBadID(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	err := s.Save(context.Background(), &Run{ID: "../escape"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save error = %v, want INVALID_INPUT", err)
	}
}

// TestMongoStore runs against a live deployment when DEPWEIGHT_TEST_MONGO
// is set to a connection URI.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("DEPWEIGHT_TEST_MONGO")
	if uri == "" {
		t.Skip("DEPWEIGHT_TEST_MONGO not set")
	}
	ctx := context.Background()
	db := "depweight_test_" + time.Now().Format("20060102150405")
	s, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer func() {
		_ = s.client.Database(db).Drop(ctx)
		_ = s.Close(ctx)
	}()
	testStore(t, s)
}
