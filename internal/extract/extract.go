// Package extract walks Python syntax trees and turns import statements and
// attribute accesses into per-file facts.
package extract

import (
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/importanalyzer/internal/model"
)

// Resolver maps a dotted reference, seen from a directory snapshot, to a
// project-relative file path or "".
type Resolver interface {
	Resolve(ref string, from model.Listing, silent bool) string
}

// reservedNames are never import aliases for attribute attribution.
var reservedNames = map[string]struct{}{
	"self": {},
	"msg":  {},
}

// Extractor produces FileFacts. It is safe for concurrent use when its
// Resolver is.
type Extractor struct {
	resolver Resolver
	logger   *slog.Logger
}

// New creates an Extractor.
func New(resolver Resolver, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{resolver: resolver, logger: logger}
}

// Extract visits the syntax tree of the file at path (project-relative) that
// lives in the directory described by from.
func (e *Extractor) Extract(path string, from model.Listing, root *sitter.Node, source []byte) *model.FileFacts {
	v := newVisitor(path, source, e.logger)
	v.visit(root)

	facts := &model.FileFacts{
		Path:     path,
		Imports:  v.imports,
		Bindings: make(map[string]model.Binding),
	}
	e.bind(facts, from)
	facts.Accesses = collectAccesses(v.candidates, facts.Bindings)
	return facts
}

// bind resolves every import record in source order; a later binding of the
// same alias replaces the earlier one.
func (e *Extractor) bind(facts *model.FileFacts, from model.Listing) {
	fromIndex := make(map[[2]string]int)

	for _, rec := range facts.Imports {
		if !rec.IsFrom() {
			for _, n := range rec.Names {
				alias := n.Alias
				if alias == "" {
					alias = firstComponent(n.Name)
				}
				facts.Bindings[alias] = model.Binding{
					Qualified: n.Name,
					Path:      e.resolver.Resolve(n.Name, from, false),
				}
				facts.Imported = append(facts.Imported, n.Name)
			}
			continue
		}

		modulePath := e.resolver.Resolve(rec.Module, from, false)
		key := [2]string{rec.Module, modulePath}
		idx, ok := fromIndex[key]
		if !ok {
			idx = len(facts.From)
			fromIndex[key] = idx
			facts.From = append(facts.From, model.FromUsage{Module: rec.Module, Path: modulePath})
		}

		for _, n := range rec.Names {
			qualified := rec.Module + "." + n.Name
			facts.Bindings[n.Local()] = model.Binding{
				Qualified: qualified,
				Path:      e.resolver.Resolve(qualified, from, true),
			}
			facts.From[idx].Names = append(facts.From[idx].Names, n.Name)
		}
	}
}

// collectAccesses attributes each `alias.attr` candidate to the qualified
// name the alias is bound to.
func collectAccesses(candidates map[candidate]struct{}, bindings map[string]model.Binding) []model.AttributeAccess {
	seen := make(map[model.AttributeAccess]struct{})
	var out []model.AttributeAccess
	for c := range candidates {
		if _, reserved := reservedNames[c.name]; reserved {
			continue
		}
		b, ok := bindings[c.name]
		if !ok {
			continue
		}
		acc := model.AttributeAccess{Module: b.Qualified, Attr: c.attr, Path: b.Path}
		if _, dup := seen[acc]; dup {
			continue
		}
		seen[acc] = struct{}{}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func firstComponent(ref string) string {
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		return ref[:i]
	}
	return ref
}
