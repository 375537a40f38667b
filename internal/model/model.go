// Package model defines core data structures for import-analyzer.
package model

import (
	"sort"
	"strings"
)

// ImportedName is one name of an import statement with its optional alias.
type ImportedName struct {
	Name  string
	Alias string
}

// Local returns the name the importing file binds.
func (n ImportedName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

func (n ImportedName) String() string {
	if n.Alias != "" {
		return n.Name + " as " + n.Alias
	}
	return n.Name
}

// ImportRecord is a raw import statement as observed in a source file.
// For `import A.B as C` Module is empty and Names holds {A.B, C}; for
// `from A import N as M` Module is "A" and Names holds {N, M}.
type ImportRecord struct {
	Module string
	Names  []ImportedName
	Line   int
}

// IsFrom reports whether the record is a from-import.
func (r ImportRecord) IsFrom() bool {
	return r.Module != ""
}

// Binding maps a local alias to what it refers to. Path is the
// project-relative file the qualified name resolves to, or "" when the name
// is external, standard library or unresolved.
type Binding struct {
	Qualified string
	Path      string
}

// AttributeAccess records `alias.Attr` attributed to the original qualified
// name the alias was bound to.
type AttributeAccess struct {
	Module string
	Attr   string
	Path   string
}

// Less orders accesses by module, attribute, then path.
func (a AttributeAccess) Less(b AttributeAccess) bool {
	if a.Module != b.Module {
		return a.Module < b.Module
	}
	if a.Attr != b.Attr {
		return a.Attr < b.Attr
	}
	return a.Path < b.Path
}

// FromUsage groups the names a file imported from one module.
type FromUsage struct {
	Module string
	Path   string
	Names  []string
}

// FileFacts holds everything extracted from one source file in pass 1.
type FileFacts struct {
	Path     string
	Imports  []ImportRecord
	Bindings map[string]Binding
	// Imported lists the dotted references of plain `import` statements.
	Imported []string
	From     []FromUsage
	Accesses []AttributeAccess
}

// FormattedImports renders plain imports the way reports show them:
// "A.B" or "A.B as C".
func (f *FileFacts) FormattedImports() []string {
	var out []string
	for _, rec := range f.Imports {
		if rec.IsFrom() {
			continue
		}
		for _, n := range rec.Names {
			out = append(out, n.String())
		}
	}
	return out
}

// SortedKeys returns the members of a string set in ascending order.
func SortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TopLevel returns the first component of a dotted reference or a
// slash-separated path.
func TopLevel(ref string) string {
	if i := strings.IndexAny(ref, "./"); i >= 0 {
		return ref[:i]
	}
	return ref
}
