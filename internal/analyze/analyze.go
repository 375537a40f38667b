// Package analyze runs the two-pass import analysis over a project: pass 1
// extracts per-file facts in parallel and merges them, pass 2 reconciles the
// export list of every referenced local module.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/importanalyzer/internal/config"
	"github.com/phobologic/importanalyzer/internal/discover"
	"github.com/phobologic/importanalyzer/internal/exports"
	"github.com/phobologic/importanalyzer/internal/extract"
	"github.com/phobologic/importanalyzer/internal/lang"
	"github.com/phobologic/importanalyzer/internal/model"
	"github.com/phobologic/importanalyzer/internal/parse"
	"github.com/phobologic/importanalyzer/internal/resolve"
)

// DefaultMaxFileSize is the largest source file parsed by default.
const DefaultMaxFileSize = 1_000_000 // 1 MB

// Options configures a run.
type Options struct {
	Config *config.Config
	// ScanDir is the absolute directory to scan; it defaults to the project root.
	ScanDir string
	// Workers bounds pass-1 parallelism. Zero means GOMAXPROCS.
	Workers int
	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize      int64
	RespectGitignore bool
	// Index locates installed packages. Nil means nothing is installed.
	Index  *resolve.Index
	Logger *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	Aggregate *model.Aggregate
	// Findings are ordered by module path.
	Findings []exports.Finding
	// Scanned counts discovered files, Skipped those that failed to read or parse.
	Scanned int
	Skipped int
	// Reconciled counts the local modules whose export list was checked.
	Reconciled int
}

// Run performs the analysis. Malformed or ambiguous export declarations
// abort the run; every other problem is logged and skipped.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("analyze: no configuration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := opts.Config
	scanDir := opts.ScanDir
	if scanDir == "" {
		scanDir = cfg.Root
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	files, err := discover.Files(discover.Options{
		Root:             cfg.Root,
		ScanDir:          scanDir,
		Excluder:         cfg,
		RespectGitignore: opts.RespectGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	logger.Debug("discovered files", "count", len(files), "root", cfg.Root)

	resolver := resolve.New(resolve.Options{
		Root:            cfg.Root,
		ExcludeTopLevel: cfg.Settings.ExcludeTopLevel,
		Index:           opts.Index,
		Logger:          logger,
	})
	extractor := extract.New(resolver, logger)

	kept := filterBySize(files, maxSize, logger)
	facts, err := extractConcurrent(ctx, kept, extractor, opts.Workers, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Aggregate: model.NewAggregate(),
		Scanned:   len(files),
		Skipped:   len(files) - len(facts),
	}
	for _, f := range facts {
		res.Aggregate.Merge(f)
	}
	logger.Debug("pass 1 complete", "files", len(facts), "resolved", resolver.Len())

	if err := reconcile(ctx, cfg, resolver, res, logger); err != nil {
		return nil, err
	}
	return res, nil
}

func filterBySize(files []discover.FileEntry, maxSize int64, logger *slog.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(f.Abs)
		if err != nil {
			kept = append(kept, f) // keep if can't stat; reading reports it
			continue
		}
		if fi.Size() > maxSize {
			logger.Warn("skipping large file", "file", f.Path, "size", fi.Size(), "limit", maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// extractConcurrent runs pass 1 on a pool of workers and returns the facts
// of every file that parsed, in discovery order.
func extractConcurrent(ctx context.Context, files []discover.FileEntry, extractor *extract.Extractor, workers int, logger *slog.Logger) ([]*model.FileFacts, error) {
	type result struct {
		index int
		facts *model.FileFacts
	}

	if len(files) == 0 {
		return nil, nil
	}
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			parser := lang.Python.NewParser()

			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				f := files[idx]
				facts, err := extractFile(ctx, parser, extractor, f)
				if err != nil {
					logger.Warn("skipping file", "file", f.Path, "error", err)
					continue
				}
				logger.Debug("extracted", "file", f.Path, "imports", len(facts.Imports), "accesses", len(facts.Accesses))
				results <- result{index: idx, facts: facts}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in discovery order
	indexed := make([]*model.FileFacts, len(files))
	for r := range results {
		indexed[r.index] = r.facts
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*model.FileFacts
	for _, f := range indexed {
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func extractFile(ctx context.Context, parser *sitter.Parser, extractor *extract.Extractor, f discover.FileEntry) (*model.FileFacts, error) {
	source, err := os.ReadFile(f.Abs)
	if err != nil {
		return nil, err
	}
	tree, err := parse.Parse(ctx, parser, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return extractor.Extract(f.Path, f.Listing, tree.Root(), tree.Source), nil
}

// reconcile runs pass 2 over every local module the project references.
func reconcile(ctx context.Context, cfg *config.Config, resolver *resolve.Resolver, res *Result, logger *slog.Logger) error {
	parser := lang.Python.NewParser()

	for _, path := range res.Aggregate.ModulePaths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := filepath.Join(cfg.Root, filepath.FromSlash(path))
		if cfg.Excluded(path) || cfg.Excluded(abs) || resolver.IsExcluded(model.TopLevel(path)) {
			logger.Debug("not reconciling excluded module", "module", path)
			continue
		}

		source, err := os.ReadFile(abs)
		if err != nil {
			logger.Warn("skipping module", "module", path, "error", err)
			continue
		}
		tree, err := parse.Parse(ctx, parser, source)
		if err != nil {
			logger.Warn("skipping module", "module", path, "error", err)
			continue
		}
		decl, err := exports.Find(tree.Root(), tree.Source)
		tree.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		res.Reconciled++
		if finding, ok := exports.Reconcile(path, decl, res.Aggregate.Usage(path)); ok {
			res.Findings = append(res.Findings, finding)
		}
	}
	return nil
}
