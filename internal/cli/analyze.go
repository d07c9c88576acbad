package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depweight/pkg/analysis"
	"github.com/matzehuels/depweight/pkg/cache"
	"github.com/matzehuels/depweight/pkg/config"
	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/geiger"
	"github.com/matzehuels/depweight/pkg/loc"
	"github.com/matzehuels/depweight/pkg/memo"
	"github.com/matzehuels/depweight/pkg/pkggraph"
	"github.com/matzehuels/depweight/pkg/reportstore"
)

// analyzeOptions holds the analyze command's flags.
type analyzeOptions struct {
	all            bool
	noUnsafe       bool
	concurrency    int
	graphFile      string
	metadataFile   string
	output         string
	store          string
	redis          string
	noCache        bool
	noSave         bool
	scannerTimeout time.Duration
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [project-dir]",
		Short: "Report the weight of each dependency of a Cargo workspace",
		Long: `Analyze resolves the workspace's dependency graph with cargo metadata,
scans it for unsafe code with cargo geiger, counts the lines of every
package and reports, for each direct dependency, its own size and the size
of the dependencies only it pulls in.`,
		Example: `  depweight analyze .
  depweight analyze --all --no-unsafe ~/src/app
  depweight analyze --metadata metadata.json --no-unsafe -o report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyAnalyzeFlags(cmd, &cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), dir, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.all, "all", false, "report on every external package, not only direct dependencies")
	f.BoolVar(&opts.noUnsafe, "no-unsafe", false, "skip the unsafe-code scan")
	f.IntVarP(&opts.concurrency, "concurrency", "j", 0, "reports assembled in parallel (default GOMAXPROCS)")
	f.StringVar(&opts.graphFile, "graph", "", "read the dependency graph from a depweight JSON graph file")
	f.StringVar(&opts.metadataFile, "metadata", "", "read the dependency graph from saved cargo metadata output")
	f.StringVarP(&opts.output, "output", "o", "", "write the reports as JSON to this file (- for stdout)")
	f.StringVar(&opts.store, "store", "", "run store: a directory or mongodb:// URI")
	f.StringVar(&opts.redis, "redis", "", "share the line-count cache through Redis at this address")
	f.BoolVar(&opts.noCache, "no-cache", false, "do not read or write the persistent line-count cache")
	f.BoolVar(&opts.noSave, "no-save", false, "do not record the run in the run store")
	f.DurationVar(&opts.scannerTimeout, "scanner-timeout", 0, "time limit for each cargo geiger invocation")
	cmd.MarkFlagsMutuallyExclusive("graph", "metadata")

	return cmd
}

// applyAnalyzeFlags overrides cfg with the flags the user set explicitly.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, opts analyzeOptions) {
	f := cmd.Flags()
	if f.Changed("all") {
		cfg.Analysis.AllDependencies = opts.all
	}
	if f.Changed("no-unsafe") {
		cfg.Analysis.SkipUnsafe = opts.noUnsafe
	}
	if f.Changed("concurrency") {
		cfg.Analysis.Concurrency = opts.concurrency
	}
	if f.Changed("scanner-timeout") {
		cfg.Analysis.ScannerTimeout = config.Duration{Duration: opts.scannerTimeout}
	}
	if f.Changed("store") {
		cfg.Store.URI = opts.store
	}
	if f.Changed("redis") {
		cfg.Redis.Addr = opts.redis
	}
}

func (c *CLI) runAnalyze(ctx context.Context, dir string, cfg config.Config, opts analyzeOptions) error {
	prog := newProgress(c.Logger)
	g, err := c.loadGraph(ctx, dir, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d packages", g.Len()))

	backend, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer backend.Close()

	storeOpts := []memo.Option{memo.WithBackend(backend, cache.NewDefaultKeyer())}
	if cfg.CacheTTL.Duration > 0 {
		storeOpts = append(storeOpts, memo.WithTTL(cfg.CacheTTL.Duration))
	}
	store := memo.New(loc.NewWalker(), storeOpts...)
	scanner := &geiger.Command{Timeout: cfg.Analysis.ScannerTimeout.Duration}
	analyzer := analysis.NewAnalyzer(store, scanner, c.Logger)

	aopts := analysis.Options{
		AllDependencies: cfg.Analysis.AllDependencies,
		SkipUnsafe:      cfg.Analysis.SkipUnsafe,
		Concurrency:     cfg.Analysis.Concurrency,
	}

	spinner := newSpinnerWithContext(ctx, "Analyzing dependencies...")
	spinner.Start()
	result, err := analyzer.Analyze(ctx, g, aopts)
	if err != nil {
		if spinner.Canceled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.Stop()

	// JSON on stdout replaces the human-readable summary.
	if opts.output == "-" {
		if err := writeReports(opts.output, result.Reports); err != nil {
			return err
		}
	} else {
		printSuccess("Analyzed %d dependencies", len(result.Reports))
		printAnalysisStats(result.Stats)
		printNewline()
		fmt.Println(reportTable(result.Reports))
		if opts.output != "" {
			if err := writeReports(opts.output, result.Reports); err != nil {
				return err
			}
			printFile(opts.output)
		}
	}

	if opts.noSave {
		return nil
	}
	run, err := c.saveRun(ctx, cfg, projectName(g, dir), aopts, result.Reports)
	if err != nil {
		return err
	}
	if opts.output != "-" {
		printKeyValue("Run", run.ID)
		printNextStep("Inspect later", "depweight runs show "+run.ID)
	}
	return nil
}

// loadGraph reads the dependency graph from a file or runs cargo metadata.
func (c *CLI) loadGraph(ctx context.Context, dir string, opts analyzeOptions) (*pkggraph.Graph, error) {
	switch {
	case opts.graphFile != "":
		c.Logger.Debug("reading graph", "file", opts.graphFile)
		return pkggraph.ImportJSON(opts.graphFile)
	case opts.metadataFile != "":
		c.Logger.Debug("reading cargo metadata", "file", opts.metadataFile)
		f, err := os.Open(opts.metadataFile)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", opts.metadataFile)
		}
		defer f.Close()
		return pkggraph.ReadCargoMetadata(f)
	default:
		c.Logger.Debug("running cargo metadata", "dir", dir)
		return pkggraph.CargoMetadata(ctx, dir)
	}
}

func (c *CLI) saveRun(ctx context.Context, cfg config.Config, project string, opts analysis.Options, reports []analysis.CodeReport) (*reportstore.Run, error) {
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close(ctx)

	run := reportstore.NewRun(project, opts, reports)
	if err := store.Save(ctx, run); err != nil {
		return nil, err
	}
	c.Logger.Debug("saved run", "id", run.ID)
	return run, nil
}

// projectName names a run after its first workspace member, falling back
// to the project directory.
func projectName(g *pkggraph.Graph, dir string) string {
	if roots := g.WorkspaceRoots(); len(roots) > 0 {
		return roots[0].ID.Name
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return filepath.Base(abs)
	}
	return dir
}

// writeReports writes reports as indented JSON to path, or stdout for "-".
func writeReports(path string, reports []analysis.CodeReport) error {
	if path == "-" {
		return encodeReports(os.Stdout, reports)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	if err := encodeReports(f, reports); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func encodeReports(w io.Writer, reports []analysis.CodeReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode reports")
	}
	return nil
}
