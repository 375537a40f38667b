package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/phobologic/importanalyzer/internal/config"
)

const (
	sentinelStart = "# import-analyzer:start"
	sentinelEnd   = "# import-analyzer:end"
)

// newInitCommand builds the `import-analyzer init` subcommand, which writes
// (or updates) a [tool.import-analyzer] table in a pyproject.toml file.
func newInitCommand(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-pyproject.toml]",
		Short: "Write an import-analyzer settings table to pyproject.toml",
		Long: `Write a [tool.import-analyzer] table to a pyproject.toml file. The table is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

path-to-pyproject.toml defaults to ./pyproject.toml.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runInit(args, dryRun, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

func runInit(args []string, dryRun bool, stdout, stderr io.Writer) error {
	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.ManifestName
	if len(args) > 0 {
		path = args[0]
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated, err := applySection(string(existing), section)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote import-analyzer settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped settings table with every
// setting at its default.
func generateSection() string {
	body := `[tool.import-analyzer]
# Regular expressions matched against the start of absolute and
# project-relative paths; matching files are not analyzed.
exclude = []
# Top-level modules always treated as external, e.g. vendored code.
exclude_toplevel_module = []
# Extra install prefixes or site-packages directories searched for
# installed packages, relative to the project root unless absolute.
site_packages = []`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. Content that already configures the
// tool outside a sentinel block is left alone and reported as an error.
func applySection(content, section string) (string, error) {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	var updated string
	if start >= 0 && end > start {
		updated = content[:start] + section + content[end+len(sentinelEnd):]
	} else {
		if configured(content) {
			return "", errors.New("[tool.import-analyzer] is already configured")
		}
		// Append, ensuring a blank line separator.
		if len(content) > 0 && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if len(content) > 0 {
			content += "\n"
		}
		updated = content + section + "\n"
	}

	var doc map[string]any
	if err := toml.Unmarshal([]byte(updated), &doc); err != nil {
		return "", fmt.Errorf("updated manifest is not valid TOML: %w", err)
	}
	return updated, nil
}

func configured(content string) bool {
	var doc struct {
		Tool map[string]any `toml:"tool"`
	}
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return false
	}
	_, ok := doc.Tool["import-analyzer"]
	return ok
}
