// Package config discovers the project root and loads analyzer settings
// from its pyproject.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// ManifestName is the file whose directory marks the project root.
const ManifestName = "pyproject.toml"

// envPrefix is the environment variable prefix for settings overrides.
const envPrefix = "IMPORT_ANALYZER"

// Settings is the [tool.import-analyzer] table.
type Settings struct {
	// Exclude holds regular expressions anchored at the start of a path.
	Exclude []string `toml:"exclude" mapstructure:"exclude"`
	// ExcludeTopLevel names top-level modules always treated as external.
	ExcludeTopLevel []string `toml:"exclude_toplevel_module" mapstructure:"exclude_toplevel_module"`
	// SitePackages adds install prefixes or site-packages directories.
	SitePackages []string `toml:"site_packages" mapstructure:"site_packages"`
}

type manifest struct {
	Tool struct {
		ImportAnalyzer Settings `toml:"import-analyzer"`
	} `toml:"tool"`
}

// Config is the loaded configuration of one run.
type Config struct {
	// Root is the absolute project root.
	Root string
	// Manifest is the path of the manifest that was read, or "".
	Manifest string
	Settings Settings

	exclude []*regexp.Regexp
}

// FindRoot walks upward from scanDir to the nearest directory containing a
// manifest. It returns scanDir itself when none is found.
func FindRoot(scanDir string) (root string, manifest string) {
	dir := scanDir
	for {
		candidate := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return dir, candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return scanDir, ""
		}
		dir = parent
	}
}

// Load discovers the project root for scanDir and loads its settings.
// Environment variables prefixed IMPORT_ANALYZER_ override manifest values.
func Load(scanDir string) (*Config, error) {
	scanDir, err := filepath.Abs(scanDir)
	if err != nil {
		return nil, fmt.Errorf("resolving scan dir: %w", err)
	}

	root, manifestPath := FindRoot(scanDir)
	cfg := &Config{Root: root, Manifest: manifestPath}

	if manifestPath != "" {
		s, err := readManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		cfg.Settings = s
	}

	cfg.Settings, err = applyEnv(cfg.Settings)
	if err != nil {
		return nil, err
	}

	for _, pat := range cfg.Settings.Exclude {
		re, err := regexp.Compile("^" + pat)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pat, err)
		}
		cfg.exclude = append(cfg.exclude, re)
	}

	return cfg, nil
}

func readManifest(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m.Tool.ImportAnalyzer, nil
}

// applyEnv layers IMPORT_ANALYZER_* environment variables over s. Values are
// whitespace separated lists.
func applyEnv(s Settings) (Settings, error) {
	v := viper.New()
	v.SetDefault("exclude", s.Exclude)
	v.SetDefault("exclude_toplevel_module", s.ExcludeTopLevel)
	v.SetDefault("site_packages", s.SitePackages)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var out Settings
	if err := v.Unmarshal(&out, viper.DecodeHook(splitFields)); err != nil {
		return Settings{}, fmt.Errorf("applying environment overrides: %w", err)
	}
	return out, nil
}

// splitFields decodes an environment string into a list field.
func splitFields(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	return strings.Fields(data.(string)), nil
}

// Excluded reports whether a path, absolute or root-relative, matches an
// exclusion pattern.
func (c *Config) Excluded(path string) bool {
	for _, re := range c.exclude {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
