// Package exports finds a module's __all__ declaration and reconciles it
// with the names the rest of the project uses.
package exports

import (
	"errors"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/importanalyzer/internal/model"
	"github.com/phobologic/importanalyzer/internal/parse"
)

// Symbol is the conventional name of the export list.
const Symbol = "__all__"

var (
	// ErrMalformedExports means the export list is not a single-target
	// assignment of a list of string constants.
	ErrMalformedExports = errors.New("malformed " + Symbol + " declaration")
	// ErrAmbiguousExports means the module assigns the export list more than once.
	ErrAmbiguousExports = errors.New("ambiguous " + Symbol + " declaration")
)

// Declaration is a module's export list.
type Declaration struct {
	Found bool
	Names []string
	Line  int
}

// Declared returns the declared names as a set.
func (d Declaration) Declared() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Names))
	for _, n := range d.Names {
		set[n] = struct{}{}
	}
	return set
}

// Find locates the top-level export list of a module.
func Find(root *sitter.Node, source []byte) (Declaration, error) {
	var decl Declaration

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if parse.Classify(stmt) != parse.KindExpressionStatement || stmt.NamedChildCount() != 1 {
			continue
		}
		assign := stmt.NamedChild(0)
		if parse.Classify(assign) != parse.KindAssignment {
			continue
		}

		targets, value := unchain(assign)
		if !assignsSymbol(targets, source) {
			continue
		}
		line := parse.Line(stmt)
		if value == nil {
			// A bare annotation declares nothing.
			continue
		}
		if len(targets) != 1 {
			return Declaration{}, fmt.Errorf("%w: line %d: %d assignment targets", ErrMalformedExports, line, len(targets))
		}
		if decl.Found {
			return Declaration{}, fmt.Errorf("%w: assigned on lines %d and %d", ErrAmbiguousExports, decl.Line, line)
		}

		names, err := parse.StringList(value, source)
		if err != nil {
			return Declaration{}, fmt.Errorf("%w: %w", ErrMalformedExports, err)
		}
		decl = Declaration{Found: true, Names: names, Line: line}
	}

	return decl, nil
}

// unchain flattens `a = b = value` into its targets and final value.
func unchain(assign *sitter.Node) ([]*sitter.Node, *sitter.Node) {
	var targets []*sitter.Node
	for {
		targets = append(targets, assign.ChildByFieldName("left"))
		right := assign.ChildByFieldName("right")
		if parse.Classify(right) != parse.KindAssignment {
			return targets, right
		}
		assign = right
	}
}

func assignsSymbol(targets []*sitter.Node, source []byte) bool {
	for _, t := range targets {
		if parse.Classify(t) == parse.KindIdentifier && parse.NodeText(t, source) == Symbol {
			return true
		}
	}
	return false
}

// Finding is a reconciliation result for one module.
type Finding struct {
	Path     string
	Existing bool
	Add      []string
}

// Reconcile computes the names a module's export list is missing given its
// observed usage. It reports false when nothing needs to be added.
func Reconcile(path string, decl Declaration, usage model.ModuleUsage) (Finding, bool) {
	declared := decl.Declared()
	var missing []string
	for name := range usage.Observed() {
		if _, ok := declared[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return Finding{}, false
	}
	sort.Strings(missing)
	return Finding{Path: path, Existing: decl.Found, Add: missing}, true
}
