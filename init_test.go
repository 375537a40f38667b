package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/importanalyzer/internal/config"
)

// TestApplySectionCreate verifies that applySection on empty content wraps the
// section in sentinels with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	got, err := applySection("", generateSection())
	if err != nil {
		t.Fatalf("applySection: %v", err)
	}
	if !strings.HasPrefix(got, sentinelStart) {
		t.Error("missing sentinel start")
	}
	if !strings.HasSuffix(got, sentinelEnd+"\n") {
		t.Error("missing sentinel end")
	}
	if !strings.Contains(got, "[tool.import-analyzer]") {
		t.Error("missing table header")
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "[project]\nname = \"demo\"\n\n[tool.ruff]\nline-length = 100\n"
	got, err := applySection(existing, generateSection())
	if err != nil {
		t.Fatalf("applySection: %v", err)
	}

	if !strings.HasPrefix(got, existing+"\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.Contains(got, "exclude_toplevel_module = []") {
		t.Error("new content missing")
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "[project]\nname = \"demo\"\n\n"
	after := "\n\n[tool.black]\nline-length = 100\n"
	old := before + sentinelStart + "\n[tool.import-analyzer]\nexclude = [\"old/\"]\n" + sentinelEnd + after

	got, err := applySection(old, generateSection())
	if err != nil {
		t.Fatalf("applySection: %v", err)
	}

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old/") {
		t.Error("old content should be replaced")
	}
}

// TestApplySectionAlreadyConfigured verifies that a hand-written table is
// never duplicated.
func TestApplySectionAlreadyConfigured(t *testing.T) {
	t.Parallel()
	existing := "[tool.import-analyzer]\nexclude = [\"build/\"]\n"
	if _, err := applySection(existing, generateSection()); err == nil {
		t.Error("expected an error for an already configured manifest")
	}
}

// TestApplySectionInvalidManifest verifies that a broken manifest is not
// made worse.
func TestApplySectionInvalidManifest(t *testing.T) {
	t.Parallel()
	if _, err := applySection("[project\n", generateSection()); err == nil {
		t.Error("expected an error for invalid TOML")
	}
}

// TestInitCreatesFile verifies that init creates the target file when it does
// not exist, and that the result loads as configuration.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ManifestName)

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(data), sentinelStart) {
		t.Error("sentinel start missing from created file")
	}
	if !strings.Contains(stderr.String(), "wrote import-analyzer settings") {
		t.Errorf("stderr: %q", stderr.String())
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("loading written manifest: %v", err)
	}
	if cfg.Manifest != path {
		t.Errorf("manifest = %q, want %q", cfg.Manifest, path)
	}
}

// TestInitDryRun verifies that --dry-run prints the full would-be file content
// to stdout and does not create or modify the target file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ManifestName)

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := os.Stat(path); err == nil {
		t.Error("--dry-run should not create the file")
	}
	if !strings.Contains(stdout.String(), sentinelEnd) {
		t.Error("dry-run output missing sentinel end")
	}
}

// TestInitDryRunNoPath verifies that --dry-run without a path prints just the
// generated section.
func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"init", "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if stdout.String() != generateSection()+"\n" {
		t.Errorf("dry-run output:\n%s", stdout.String())
	}
}

// TestInitIdempotent verifies that running init twice yields the same file.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ManifestName)
	if err := os.WriteFile(path, []byte("[project]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("first init: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := run(context.Background(), []string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("second init: %v", err)
	}
	second, _ := os.ReadFile(path)

	if !bytes.Equal(first, second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
