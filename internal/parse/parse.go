// Package parse turns Python source into tree-sitter syntax trees and
// classifies their nodes into a closed set of kinds.
package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrSyntax is returned when a source file does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Tree is a parsed source file. Close releases the underlying tree-sitter tree.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Close releases the tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// Parse parses source with parser. A tree containing ERROR or missing nodes
// is rejected with an error wrapping ErrSyntax that names the first bad line.
func Parse(ctx context.Context, parser *sitter.Parser, source []byte) (*Tree, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, fmt.Errorf("%w at line %d", ErrSyntax, line)
	}

	return &Tree{tree: tree, Source: source}, nil
}

func firstErrorLine(node *sitter.Node) int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return int(node.StartPoint().Row) + 1
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstErrorLine(child)
		}
	}
	return int(node.StartPoint().Row) + 1
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// DottedName returns the dotted reference spelled by a dotted_name or
// identifier node, ignoring any whitespace or comments between components.
func DottedName(node *sitter.Node, source []byte) string {
	if Classify(node) == KindIdentifier {
		return NodeText(node, source)
	}
	var parts []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if Classify(child) == KindIdentifier {
			parts = append(parts, NodeText(child, source))
		}
	}
	return strings.Join(parts, ".")
}
