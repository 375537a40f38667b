// import-analyzer reports how a Python project uses its own modules and which
// names each module's __all__ is missing.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phobologic/importanalyzer/internal/analyze"
	"github.com/phobologic/importanalyzer/internal/config"
	"github.com/phobologic/importanalyzer/internal/report"
	"github.com/phobologic/importanalyzer/internal/resolve"
)

var version = "dev"

const defaultMaxFileSize = "1MB"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	outDir           string
	jobs             int
	perFile          bool
	respectGitignore bool
	noColor          bool
	verbose          bool
	quiet            bool
	maxFileSize      string
	showVersion      bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "import-analyzer [scan_dir]",
		Short: "Report module usage and missing __all__ entries of a Python project",
		Long: `import-analyzer scans the Python files under scan_dir, records every import
and every attribute accessed through an imported name, and compares what the
project uses of each local module with that module's __all__ list.

The project root is the nearest directory at or above scan_dir containing a
pyproject.toml; settings are read from its [tool.import-analyzer] table.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "import-analyzer %s\n", version)
				return nil
			}
			scanDir := "."
			if len(args) > 0 {
				scanDir = args[0]
			}
			return analyzeProject(cmd.Context(), scanDir, opts, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outDir, "out-dir", "o", ".", "directory the JSON reports are written to")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files parsed in parallel")
	f.BoolVar(&opts.perFile, "per-file", false, "also write "+report.FileImportsFile)
	f.BoolVar(&opts.respectGitignore, "respect-gitignore", false, "skip files matched by the project .gitignore")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.StringVar(&opts.maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this (e.g. 500KB, 2MiB)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log per-file progress")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors and omit the summary")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newInitCommand(stdout, stderr))
	return cmd
}

func newLogger(w io.Writer, opts options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func analyzeProject(ctx context.Context, scanDir string, opts options, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts)

	scanDir, err := filepath.Abs(scanDir)
	if err != nil {
		return fmt.Errorf("resolving scan dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(scanDir); err == nil {
		scanDir = resolved
	}
	info, err := os.Stat(scanDir)
	if err != nil {
		return fmt.Errorf("scan dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", scanDir)
	}

	maxSize, err := humanize.ParseBytes(opts.maxFileSize)
	if err != nil {
		return fmt.Errorf("--max-file-size: %w", err)
	}

	cfg, err := config.Load(scanDir)
	if err != nil {
		return err
	}
	logger.Info("project root", "root", cfg.Root, "manifest", cfg.Manifest)

	siteDirs := resolve.SiteDirs(sitePrefixes(cfg))
	index := resolve.BuildIndex(siteDirs, logger)

	res, err := analyze.Run(ctx, analyze.Options{
		Config:           cfg,
		ScanDir:          scanDir,
		Workers:          opts.jobs,
		MaxFileSize:      int64(maxSize),
		RespectGitignore: opts.respectGitignore,
		Index:            index,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	noColor := opts.noColor || color.NoColor || stdout != os.Stdout
	if err := report.NewPrinter(stdout, noColor).Print(res.Findings); err != nil {
		return fmt.Errorf("printing findings: %w", err)
	}

	paths, err := report.Write(ctx, opts.outDir, res.Aggregate, opts.perFile)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Debug("wrote report", "path", p)
	}

	if !opts.quiet {
		_, _ = fmt.Fprintf(stderr, "%s files scanned, %s skipped, %s modules reconciled, %s need __all__ updates\n",
			humanize.Comma(int64(res.Scanned)),
			humanize.Comma(int64(res.Skipped)),
			humanize.Comma(int64(res.Reconciled)),
			humanize.Comma(int64(len(res.Findings))))
	}
	return nil
}

// sitePrefixes lists configured install prefixes, relative ones taken from
// the project root, ahead of the environment defaults.
func sitePrefixes(cfg *config.Config) []string {
	var prefixes []string
	for _, p := range cfg.Settings.SitePackages {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Root, p)
		}
		prefixes = append(prefixes, p)
	}
	return append(prefixes, resolve.DefaultPrefixes(cfg.Root, os.Getenv)...)
}
