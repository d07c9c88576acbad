package analysis

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/geiger"
	"github.com/matzehuels/depweight/pkg/memo"
	"github.com/matzehuels/depweight/pkg/metrics"
	"github.com/matzehuels/depweight/pkg/observability"
	"github.com/matzehuels/depweight/pkg/ownership"
	"github.com/matzehuels/depweight/pkg/pkggraph"
)

// Analyzer produces code reports for a dependency graph.
//
// An Analyzer holds no per-run state beyond its Store. Reusing one Store
// across runs over the same machine's sources is safe, since every cached
// value is a pure function of its key.
type Analyzer struct {
	Store   *memo.Store
	Scanner geiger.Scanner
	Logger  *log.Logger
}

// NewAnalyzer creates an analyzer. A nil logger selects log.Default().
func NewAnalyzer(store *memo.Store, scanner geiger.Scanner, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{Store: store, Scanner: scanner, Logger: logger}
}

// Result is the output of a run.
type Result struct {
	Reports []CodeReport
	Stats   Stats
}

// Stats describes a run.
type Stats struct {
	Targets      int
	Scan         geiger.WarmStats
	ScanTime     time.Duration
	AssembleTime time.Duration
	Cache        memo.Stats
}

// Analyze reports on the direct dependencies of g's workspace, or on every
// external package with opts.AllDependencies. Reports are sorted by
// package key.
func (a *Analyzer) Analyze(ctx context.Context, g *pkggraph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	if !opts.SkipUnsafe {
		if err := a.warm(ctx, g, result); err != nil {
			return nil, err
		}
	}

	direct := make(map[string]bool)
	for _, p := range g.WorkspaceDependencies() {
		direct[p.ID.Key()] = true
	}
	targets := g.WorkspaceDependencies()
	if opts.AllDependencies {
		targets = g.ExternalPackages()
	}
	result.Stats.Targets = len(targets)

	start := time.Now()
	reports := make([]CodeReport, len(targets))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for i, p := range targets {
		eg.Go(func() error {
			r, err := a.Report(egCtx, g, p.ID)
			if err != nil {
				return err
			}
			r.IsDirect = direct[p.ID.Key()]
			reports[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	result.Stats.AssembleTime = time.Since(start)
	result.Stats.Cache = a.Store.Stats()
	result.Reports = reports

	a.Logger.Info("assembled reports",
		"reports", len(reports),
		"counted", result.Stats.Cache.Counted,
		"duration", result.Stats.AssembleTime)
	return result, nil
}

func (a *Analyzer) warm(ctx context.Context, g *pkggraph.Graph, result *Result) error {
	if a.Scanner == nil {
		return errors.New(errors.ErrCodeInternal, "no unsafe-code scanner configured")
	}
	roots := g.WorkspaceRoots()
	manifests := make([]string, len(roots))
	for i, r := range roots {
		manifests[i] = r.ManifestPath
	}

	start := time.Now()
	stats, err := geiger.Warm(ctx, a.Scanner, a.Store, manifests)
	if err != nil {
		return err
	}
	result.Stats.Scan = stats
	result.Stats.ScanTime = time.Since(start)

	a.Logger.Info("scanned for unsafe code",
		"roots", stats.Roots,
		"records", stats.Records,
		"merged", stats.Merged,
		"duration", result.Stats.ScanTime)
	if stats.UnscannedFiles > 0 {
		a.Logger.Warn("scanner could not attribute some files", "files", stats.UnscannedFiles)
	}
	return nil
}

// Report assembles the report for one package. IsDirect is left false;
// Analyze sets it.
func (a *Analyzer) Report(ctx context.Context, g *pkggraph.Graph, id pkggraph.PackageID) (CodeReport, error) {
	start := time.Now()
	p, err := g.Package(id)
	if err != nil {
		return CodeReport{}, err
	}

	own, err := a.Store.PackageLOC(ctx, p)
	if err != nil {
		return CodeReport{}, err
	}

	deps, err := g.TransitiveDependencies(id)
	if err != nil {
		return CodeReport{}, errors.Wrap(errors.GetCode(err), err, "dependencies of %s", id)
	}
	exclusive, err := ownership.Exclusive(g, id, pkggraph.IDs(deps))
	if err != nil {
		return CodeReport{}, errors.Wrap(errors.GetCode(err), err, "exclusive dependencies of %s", id)
	}

	byKey := make(map[string]metrics.PackageMetrics, len(deps))
	all := make([]metrics.PackageMetrics, 0, len(deps))
	for _, d := range deps {
		m, err := a.packageMetrics(ctx, d)
		if err != nil {
			return CodeReport{}, err
		}
		byKey[m.Key] = m
		all = append(all, m)
	}
	owned := make([]metrics.PackageMetrics, len(exclusive))
	for i, e := range exclusive {
		owned[i] = byKey[e.Key()]
	}

	r := CodeReport{
		Name:           p.ID.Name,
		Version:        p.ID.Version,
		Source:         p.ID.Source,
		HasBuildScript: p.HasBuildScript,
		LOC:            own,
		Unsafe:         a.Store.UnsafeReport(p.ID),
		Dependencies:   metrics.Sum(all...),
		Exclusive:      metrics.Sum(owned...),
	}

	a.Logger.Debug("report", "package", id, "deps", len(deps), "exclusive", len(exclusive))
	observability.Analysis().OnReportAssembled(ctx, id.NameVersion(), len(deps), len(exclusive), time.Since(start))
	return r, nil
}

func (a *Analyzer) packageMetrics(ctx context.Context, p *pkggraph.Package) (metrics.PackageMetrics, error) {
	l, err := a.Store.PackageLOC(ctx, p)
	if err != nil {
		return metrics.PackageMetrics{}, err
	}
	return metrics.PackageMetrics{
		Key:            p.ID.Key(),
		LOC:            l,
		HasBuildScript: p.HasBuildScript,
		Unsafe:         a.Store.UnsafeReport(p.ID),
	}, nil
}
