package extract

import (
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/importanalyzer/internal/model"
	"github.com/phobologic/importanalyzer/internal/parse"
)

// candidate is a `name.attr` expression whose base is a bare name.
type candidate struct {
	name string
	attr string
}

// visitor walks one file's syntax tree and accumulates import statements and
// attribute-access candidates.
type visitor struct {
	file   string
	source []byte
	logger *slog.Logger

	imports    []model.ImportRecord
	candidates map[candidate]struct{}
}

func newVisitor(file string, source []byte, logger *slog.Logger) *visitor {
	return &visitor{
		file:       file,
		source:     source,
		logger:     logger,
		candidates: make(map[candidate]struct{}),
	}
}

// visit dispatches on the node kind. Unknown kinds are reported and skipped.
func (v *visitor) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch kind := parse.Classify(node); kind {
	case parse.KindImport:
		v.visitImport(node)

	case parse.KindImportFrom:
		v.visitImportFrom(node)

	case parse.KindAttribute:
		v.visitAttribute(node)

	case parse.KindDottedName:
		v.visitDottedName(node)

	case parse.KindDictionary, parse.KindPair:
		// Dict literal values are not traversed.

	case parse.KindDictionaryComprehension:
		v.visitClauses(node)

	case parse.KindIdentifier,
		parse.KindString,
		parse.KindConcatenatedString,
		parse.KindInteger,
		parse.KindFloat,
		parse.KindTrue,
		parse.KindFalse,
		parse.KindNone,
		parse.KindEllipsis,
		parse.KindComment,
		parse.KindLineContinuation,
		parse.KindPass,
		parse.KindBreak,
		parse.KindContinue,
		parse.KindDelete,
		parse.KindGlobal,
		parse.KindNonlocal,
		parse.KindFutureImport,
		parse.KindKeywordSeparator,
		parse.KindPositionalSeparator:
		// Nothing inside can import or access an attribute of an import.

	case parse.KindModule,
		parse.KindBlock,
		parse.KindExpressionStatement,
		parse.KindAssignment,
		parse.KindAugmentedAssignment,
		parse.KindReturn,
		parse.KindRaise,
		parse.KindAssert,
		parse.KindPrint,
		parse.KindChevron,
		parse.KindExec,
		parse.KindTypeAlias,
		parse.KindIf,
		parse.KindElif,
		parse.KindElse,
		parse.KindFor,
		parse.KindWhile,
		parse.KindTry,
		parse.KindExcept,
		parse.KindExceptGroup,
		parse.KindFinally,
		parse.KindWith,
		parse.KindWithClause,
		parse.KindWithItem,
		parse.KindMatch,
		parse.KindCase,
		parse.KindFunctionDefinition,
		parse.KindClassDefinition,
		parse.KindDecoratedDefinition,
		parse.KindDecorator,
		parse.KindParameters,
		parse.KindLambdaParameters,
		parse.KindDefaultParameter,
		parse.KindTypedParameter,
		parse.KindTypedDefaultParameter,
		parse.KindType,
		parse.KindTypeParameter,
		parse.KindGenericType,
		parse.KindUnionType,
		parse.KindMemberType,
		parse.KindSplatType,
		parse.KindConstrainedType,
		parse.KindCall,
		parse.KindArgumentList,
		parse.KindKeywordArgument,
		parse.KindSubscript,
		parse.KindSlice,
		parse.KindBinaryOperator,
		parse.KindUnaryOperator,
		parse.KindBooleanOperator,
		parse.KindNotOperator,
		parse.KindComparisonOperator,
		parse.KindConditionalExpression,
		parse.KindLambda,
		parse.KindNamedExpression,
		parse.KindAwait,
		parse.KindYield,
		parse.KindParenthesizedExpression,
		parse.KindExpressionList,
		parse.KindList,
		parse.KindTuple,
		parse.KindSet,
		parse.KindListComprehension,
		parse.KindSetComprehension,
		parse.KindGeneratorExpression,
		parse.KindForInClause,
		parse.KindIfClause,
		parse.KindListSplat,
		parse.KindDictionarySplat,
		parse.KindParenthesizedListSplat,
		parse.KindAsPattern,
		parse.KindAsPatternTarget,
		parse.KindPatternList,
		parse.KindTuplePattern,
		parse.KindListPattern,
		parse.KindListSplatPattern,
		parse.KindDictionarySplatPattern,
		parse.KindCasePattern,
		parse.KindClassPattern,
		parse.KindComplexPattern,
		parse.KindDictPattern,
		parse.KindKeywordPattern,
		parse.KindSplatPattern,
		parse.KindUnionPattern:
		v.visitChildren(node)

	case parse.KindAliasedImport,
		parse.KindRelativeImport,
		parse.KindImportPrefix,
		parse.KindWildcardImport:
		// Only reachable through the import arms above.

	default:
		v.logger.Warn("unhandled syntax node",
			"file", v.file,
			"line", parse.Line(node),
			"kind", kind,
			"type", node.Type(),
			"text", truncate(parse.NodeText(node, v.source), 40),
		)
	}
}

func (v *visitor) visitChildren(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		v.visit(node.NamedChild(i))
	}
}

// visitClauses visits only the for/if clauses of a comprehension.
func (v *visitor) visitClauses(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch parse.Classify(child) {
		case parse.KindForInClause, parse.KindIfClause:
			v.visit(child)
		}
	}
}

// visitAttribute records `name.attr` when the base is a bare name and
// otherwise descends into the base, so `foo().bar` visits `foo()`.
func (v *visitor) visitAttribute(node *sitter.Node) {
	object := node.ChildByFieldName("object")
	attr := node.ChildByFieldName("attribute")
	if object == nil || attr == nil {
		v.visitChildren(node)
		return
	}
	if parse.Classify(object) == parse.KindIdentifier {
		v.candidates[candidate{
			name: parse.NodeText(object, v.source),
			attr: parse.NodeText(attr, v.source),
		}] = struct{}{}
		return
	}
	v.visit(object)
}

// visitDottedName records the first two components of a dotted name. Import
// statements are handled before their names are reached, so the dotted names
// seen here are class and value patterns such as `case m.Point(x=1):`.
func (v *visitor) visitDottedName(node *sitter.Node) {
	if node.NamedChildCount() < 2 {
		return
	}
	v.candidates[candidate{
		name: parse.NodeText(node.NamedChild(0), v.source),
		attr: parse.NodeText(node.NamedChild(1), v.source),
	}] = struct{}{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
