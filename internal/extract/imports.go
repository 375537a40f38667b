package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/importanalyzer/internal/model"
	"github.com/phobologic/importanalyzer/internal/parse"
)

// visitImport records `import A.B [as C], ...`.
func (v *visitor) visitImport(node *sitter.Node) {
	rec := model.ImportRecord{Line: parse.Line(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if name, ok := v.importedName(node.NamedChild(i)); ok {
			rec.Names = append(rec.Names, name)
		}
	}
	if len(rec.Names) > 0 {
		v.imports = append(v.imports, rec)
	}
}

// visitImportFrom records `from A.B import N [as M], ...`. Relative imports
// keep only their module part; a relative import without one is skipped.
func (v *visitor) visitImportFrom(node *sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}

	var module string
	switch parse.Classify(moduleNode) {
	case parse.KindRelativeImport:
		for i := 0; i < int(moduleNode.NamedChildCount()); i++ {
			child := moduleNode.NamedChild(i)
			if parse.Classify(child) == parse.KindDottedName {
				module = parse.DottedName(child, v.source)
			}
		}
	default:
		module = parse.DottedName(moduleNode, v.source)
	}
	if module == "" {
		v.logger.Warn("skipping relative import without a module name",
			"file", v.file,
			"line", parse.Line(node),
			"import", parse.NodeText(node, v.source),
		)
		return
	}

	rec := model.ImportRecord{Module: module, Line: parse.Line(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		if parse.Classify(child) == parse.KindWildcardImport {
			rec.Names = append(rec.Names, model.ImportedName{Name: "*"})
			continue
		}
		if name, ok := v.importedName(child); ok {
			rec.Names = append(rec.Names, name)
		}
	}
	if len(rec.Names) > 0 {
		v.imports = append(v.imports, rec)
	}
}

// importedName reads a dotted_name or aliased_import child of an import statement.
func (v *visitor) importedName(node *sitter.Node) (model.ImportedName, bool) {
	switch parse.Classify(node) {
	case parse.KindDottedName:
		return model.ImportedName{Name: parse.DottedName(node, v.source)}, true
	case parse.KindAliasedImport:
		name := node.ChildByFieldName("name")
		alias := node.ChildByFieldName("alias")
		if name == nil {
			return model.ImportedName{}, false
		}
		n := model.ImportedName{Name: parse.DottedName(name, v.source)}
		if alias != nil {
			n.Alias = parse.NodeText(alias, v.source)
		}
		return n, true
	default:
		return model.ImportedName{}, false
	}
}
