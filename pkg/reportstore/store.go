// Package reportstore persists analysis runs so they can be listed, compared
// and served by the API.
//
// Two backends are provided:
//   - [FileStore]: one JSON file per run in a directory (CLI default)
//   - [MongoStore]: a MongoDB collection, for teams sharing results
//
// Runs are immutable once saved. IDs are random UUIDs.
package reportstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depweight/pkg/analysis"
	"github.com/matzehuels/depweight/pkg/errors"
)

// Run is one stored analysis.
type Run struct {
	ID        string                `json:"id"`
	Project   string                `json:"project"`
	CreatedAt time.Time             `json:"created_at"`
	Options   RunOptions            `json:"options"`
	Reports   []analysis.CodeReport `json:"reports"`
}

// RunOptions records the analysis switches a run used.
type RunOptions struct {
	AllDependencies bool `json:"all_dependencies,omitempty"`
	SkipUnsafe      bool `json:"skip_unsafe,omitempty"`
}

// Summary is the listing view of a run.
type Summary struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	CreatedAt time.Time `json:"created_at"`
	Reports   int       `json:"reports"`
}

// Summary returns the listing view of r.
func (r *Run) Summary() Summary {
	return Summary{ID: r.ID, Project: r.Project, CreatedAt: r.CreatedAt, Reports: len(r.Reports)}
}

// Report returns the report for the named package. When several versions of
// the name are present, version selects one; an empty version matches the
// first.
func (r *Run) Report(name, version string) (analysis.CodeReport, bool) {
	for _, rep := range r.Reports {
		if rep.Name == name && (version == "" || rep.Version == version) {
			return rep, true
		}
	}
	return analysis.CodeReport{}, false
}

// NewRun creates a run with a fresh ID and the current time.
func NewRun(project string, opts analysis.Options, reports []analysis.CodeReport) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Project:   project,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Options:   RunOptions{AllDependencies: opts.AllDependencies, SkipUnsafe: opts.SkipUnsafe},
		Reports:   reports,
	}
}

// Store persists runs.
type Store interface {
	// Save stores a new run.
	Save(ctx context.Context, r *Run) error
	// Get returns a run, or a RUN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns summaries of every run, newest first.
	List(ctx context.Context) ([]Summary, error)
	Close(ctx context.Context) error
}

// validateID rejects anything that is not a UUID, so IDs are safe to use
// as file names.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
}
