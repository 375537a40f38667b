// Package report persists the analysis results as JSON files and prints the
// export-list reconciliation messages.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/importanalyzer/internal/model"
)

// Report file names.
const (
	ModuleAttrsFile = "module-attrs.json"
	ImportsFile     = "imports_set.json"
	ImportsFromFile = "imports_from_set.json"
	FileImportsFile = "file-imports.json"
)

// importFrom is one from-import statement of the per-file report.
type importFrom struct {
	Module string   `json:"module"`
	Names  []string `json:"names"`
	Line   int      `json:"line"`
}

type access struct {
	Module string `json:"module"`
	Attr   string `json:"attr"`
	Path   string `json:"path,omitempty"`
}

type fileImports struct {
	Imports     []string     `json:"imports"`
	ImportFroms []importFrom `json:"import_froms"`
	Accesses    []access     `json:"attribute_accesses"`
}

// Write writes the reports for agg into dir and returns the written paths in
// a fixed order. The per-file report is included when perFile is set.
func Write(ctx context.Context, dir string, agg *model.Aggregate, perFile bool) ([]string, error) {
	docs := []struct {
		name string
		v    any
	}{
		{ModuleAttrsFile, nonNilMap(agg.AccessedByPath())},
		{ImportsFile, nonNil(agg.Imported())},
		{ImportsFromFile, nonNilMap(agg.ImportedFromByModule())},
	}
	if perFile {
		docs = append(docs, struct {
			name string
			v    any
		}{FileImportsFile, perFileReport(agg.Files())})
	}

	paths := make([]string, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range docs {
		paths[i] = filepath.Join(dir, d.name)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := Marshal(d.v)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", d.name, err)
			}
			if err := os.WriteFile(paths[i], data, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Marshal encodes v as tab-indented JSON with sorted object keys and without
// HTML escaping or a trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func perFileReport(files []*model.FileFacts) map[string]fileImports {
	out := make(map[string]fileImports, len(files))
	for _, f := range files {
		r := fileImports{
			Imports:     nonNil(f.FormattedImports()),
			ImportFroms: []importFrom{},
			Accesses:    []access{},
		}
		for _, rec := range f.Imports {
			if !rec.IsFrom() {
				continue
			}
			names := make([]string, len(rec.Names))
			for i, n := range rec.Names {
				names[i] = n.String()
			}
			r.ImportFroms = append(r.ImportFroms, importFrom{Module: rec.Module, Names: names, Line: rec.Line})
		}
		for _, a := range f.Accesses {
			r.Accesses = append(r.Accesses, access{Module: a.Module, Attr: a.Attr, Path: a.Path})
		}
		out[f.Path] = r
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}
