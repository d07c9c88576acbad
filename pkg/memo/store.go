package memo

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/depweight/pkg/cache"
	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/loc"
	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/observability"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

const keyTypeLOC = "loc"

// Store is the metrics cache. It is safe for concurrent use.
type Store struct {
	counter loc.Counter
	backend cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration

	mu     sync.RWMutex
	loc    map[string]metrics.LOCReport
	unsafe map[string]metrics.UnsafeUsageReport

	flight singleflight.Group
	stats  struct {
		counted, loaded, hits atomic.Int64
	}
}

// Option configures a Store.
type Option func(*Store)

// WithBackend makes registry packages' line counts persist in c across runs.
// A nil keyer selects [cache.NewDefaultKeyer].
func WithBackend(c cache.Cache, keyer cache.Keyer) Option {
	return func(s *Store) {
		s.backend = c
		if keyer != nil {
			s.keyer = keyer
		}
	}
}

// WithTTL sets the expiry of persisted entries. Defaults to [cache.TTLLOC].
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates an empty Store that counts lines with counter.
func New(counter loc.Counter, opts ...Option) *Store {
	s := &Store{
		counter: counter,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     cache.TTLLOC,
		loc:     make(map[string]metrics.LOCReport),
		unsafe:  make(map[string]metrics.UnsafeUsageReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LOCReport returns the line counts of dir, counting it on first use.
// Counter failures are returned with code IO_ERROR and are not cached.
func (s *Store) LOCReport(ctx context.Context, dir string) (metrics.LOCReport, error) {
	return s.locReport(ctx, dir, false)
}

// PackageLOC returns the line counts of p's source directory. Registry
// packages are read from and written to the persistent backend, if any.
func (s *Store) PackageLOC(ctx context.Context, p *pkggraph.Package) (metrics.LOCReport, error) {
	r, err := s.locReport(ctx, p.SourceDir(), p.FromRegistry())
	if err != nil {
		if code := errors.GetCode(err); code != "" {
			return metrics.LOCReport{}, errors.Wrap(code, err, "line count of %s", p.ID)
		}
		return metrics.LOCReport{}, err
	}
	return r, nil
}

func (s *Store) locReport(ctx context.Context, dir string, persist bool) (metrics.LOCReport, error) {
	key, err := canonical(dir)
	if err != nil {
		return metrics.LOCReport{}, err
	}
	if r, ok := s.lookupLOC(key); ok {
		s.stats.hits.Add(1)
		return r, nil
	}

	_, err, _ = s.flight.Do(key, func() (any, error) {
		if _, ok := s.lookupLOC(key); ok {
			s.stats.hits.Add(1)
			return nil, nil
		}
		if persist && s.backend != nil {
			if r, ok := s.load(ctx, key); ok {
				s.stats.loaded.Add(1)
				s.storeLOC(key, r)
				return nil, nil
			}
		}

		start := time.Now()
		r, err := s.counter.Count(ctx, key)
		observability.Analysis().OnCount(ctx, key, time.Since(start), err)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, errors.Wrap(errors.ErrCodeIO, err, "count lines in %s", key)
		}
		s.stats.counted.Add(1)
		s.storeLOC(key, r)
		if persist && s.backend != nil {
			s.save(ctx, key, r)
		}
		return nil, nil
	})
	if err != nil {
		return metrics.LOCReport{}, err
	}

	r, ok := s.lookupLOC(key)
	if !ok {
		return metrics.LOCReport{}, errors.New(errors.ErrCodeCacheConsistency, "line count of %s missing after write", key)
	}
	return r, nil
}

// UnsafeReport returns the merged scanner report for id, matched by name
// and version. It never scans.
func (s *Store) UnsafeReport(id pkggraph.PackageID) metrics.Unsafe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.unsafe[id.NameVersion()]; ok {
		return metrics.Analyzed(r)
	}
	return metrics.NotAnalyzed()
}

// MergeUnsafe records r for id unless a report is already present.
// It reports whether r was stored.
func (s *Store) MergeUnsafe(id pkggraph.PackageID, r metrics.UnsafeUsageReport) bool {
	key := id.NameVersion()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unsafe[key]; ok {
		return false
	}
	s.unsafe[key] = r
	return true
}

// Stats summarizes cache activity.
type Stats struct {
	Counted     int64 // Directories counted by the line counter
	Loaded      int64 // Line counts read from the persistent backend
	Hits        int64 // Line-count requests served from memory
	Unsafe      int   // Packages with an unsafe report
	Directories int   // Distinct directories with a line count
}

// Stats returns a snapshot of the cache counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Counted:     s.stats.counted.Load(),
		Loaded:      s.stats.loaded.Load(),
		Hits:        s.stats.hits.Load(),
		Unsafe:      len(s.unsafe),
		Directories: len(s.loc),
	}
}

func (s *Store) lookupLOC(key string) (metrics.LOCReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.loc[key]
	return r, ok
}

func (s *Store) storeLOC(key string, r metrics.LOCReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loc[key]; !ok {
		s.loc[key] = r
	}
}

// load reads a persisted entry. Backend failures degrade to a miss.
func (s *Store) load(ctx context.Context, dir string) (metrics.LOCReport, bool) {
	data, ok, err := s.backend.Get(ctx, s.keyer.LOCKey(dir))
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyTypeLOC)
		return metrics.LOCReport{}, false
	}
	var r metrics.LOCReport
	if err := json.Unmarshal(data, &r); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeLOC)
		return metrics.LOCReport{}, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeLOC)
	return r, true
}

// save persists an entry. Write failures are ignored; the in-memory value
// is authoritative for this run.
func (s *Store) save(ctx context.Context, dir string, r metrics.LOCReport) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.backend.Set(ctx, s.keyer.LOCKey(dir), data, s.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyTypeLOC, len(data))
	}
}

// canonical keys a directory by its absolute path, with symlinks resolved
// when the path exists.
func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve path %s", dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}
