package parse

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind is the closed set of Python syntax node kinds the analyzer knows about.
// Node types outside the set classify as KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota

	// Imports.
	KindImport
	KindImportFrom
	KindFutureImport
	KindAliasedImport
	KindDottedName
	KindRelativeImport
	KindImportPrefix
	KindWildcardImport

	// Statements.
	KindModule
	KindBlock
	KindExpressionStatement
	KindAssignment
	KindAugmentedAssignment
	KindReturn
	KindRaise
	KindAssert
	KindDelete
	KindPass
	KindBreak
	KindContinue
	KindGlobal
	KindNonlocal
	KindPrint
	KindChevron
	KindExec
	KindTypeAlias
	KindIf
	KindElif
	KindElse
	KindFor
	KindWhile
	KindTry
	KindExcept
	KindExceptGroup
	KindFinally
	KindWith
	KindWithClause
	KindWithItem
	KindMatch
	KindCase
	KindFunctionDefinition
	KindClassDefinition
	KindDecoratedDefinition
	KindDecorator

	// Parameters and type annotations.
	KindParameters
	KindLambdaParameters
	KindDefaultParameter
	KindTypedParameter
	KindTypedDefaultParameter
	KindKeywordSeparator
	KindPositionalSeparator
	KindType
	KindTypeParameter
	KindGenericType
	KindUnionType
	KindMemberType
	KindSplatType
	KindConstrainedType

	// Expressions.
	KindIdentifier
	KindAttribute
	KindCall
	KindArgumentList
	KindKeywordArgument
	KindSubscript
	KindSlice
	KindBinaryOperator
	KindUnaryOperator
	KindBooleanOperator
	KindNotOperator
	KindComparisonOperator
	KindConditionalExpression
	KindLambda
	KindNamedExpression
	KindAwait
	KindYield
	KindParenthesizedExpression
	KindExpressionList
	KindList
	KindTuple
	KindSet
	KindDictionary
	KindPair
	KindListComprehension
	KindSetComprehension
	KindGeneratorExpression
	KindDictionaryComprehension
	KindForInClause
	KindIfClause
	KindListSplat
	KindDictionarySplat
	KindParenthesizedListSplat
	KindAsPattern
	KindAsPatternTarget

	// Assignment and match patterns.
	KindPatternList
	KindTuplePattern
	KindListPattern
	KindListSplatPattern
	KindDictionarySplatPattern
	KindCasePattern
	KindClassPattern
	KindComplexPattern
	KindDictPattern
	KindKeywordPattern
	KindSplatPattern
	KindUnionPattern

	// Literals and trivia.
	KindString
	KindConcatenatedString
	KindInteger
	KindFloat
	KindTrue
	KindFalse
	KindNone
	KindEllipsis
	KindComment
	KindLineContinuation

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown: "unknown",

	KindImport:         "import_statement",
	KindImportFrom:     "import_from_statement",
	KindFutureImport:   "future_import_statement",
	KindAliasedImport:  "aliased_import",
	KindDottedName:     "dotted_name",
	KindRelativeImport: "relative_import",
	KindImportPrefix:   "import_prefix",
	KindWildcardImport: "wildcard_import",

	KindModule:              "module",
	KindBlock:               "block",
	KindExpressionStatement: "expression_statement",
	KindAssignment:          "assignment",
	KindAugmentedAssignment: "augmented_assignment",
	KindReturn:              "return_statement",
	KindRaise:               "raise_statement",
	KindAssert:              "assert_statement",
	KindDelete:              "delete_statement",
	KindPass:                "pass_statement",
	KindBreak:               "break_statement",
	KindContinue:            "continue_statement",
	KindGlobal:              "global_statement",
	KindNonlocal:            "nonlocal_statement",
	KindPrint:               "print_statement",
	KindChevron:             "chevron",
	KindExec:                "exec_statement",
	KindTypeAlias:           "type_alias_statement",
	KindIf:                  "if_statement",
	KindElif:                "elif_clause",
	KindElse:                "else_clause",
	KindFor:                 "for_statement",
	KindWhile:               "while_statement",
	KindTry:                 "try_statement",
	KindExcept:              "except_clause",
	KindExceptGroup:         "except_group_clause",
	KindFinally:             "finally_clause",
	KindWith:                "with_statement",
	KindWithClause:          "with_clause",
	KindWithItem:            "with_item",
	KindMatch:               "match_statement",
	KindCase:                "case_clause",
	KindFunctionDefinition:  "function_definition",
	KindClassDefinition:     "class_definition",
	KindDecoratedDefinition: "decorated_definition",
	KindDecorator:           "decorator",

	KindParameters:            "parameters",
	KindLambdaParameters:      "lambda_parameters",
	KindDefaultParameter:      "default_parameter",
	KindTypedParameter:        "typed_parameter",
	KindTypedDefaultParameter: "typed_default_parameter",
	KindKeywordSeparator:      "keyword_separator",
	KindPositionalSeparator:   "positional_separator",
	KindType:                  "type",
	KindTypeParameter:         "type_parameter",
	KindGenericType:           "generic_type",
	KindUnionType:             "union_type",
	KindMemberType:            "member_type",
	KindSplatType:             "splat_type",
	KindConstrainedType:       "constrained_type",

	KindIdentifier:              "identifier",
	KindAttribute:               "attribute",
	KindCall:                    "call",
	KindArgumentList:            "argument_list",
	KindKeywordArgument:         "keyword_argument",
	KindSubscript:               "subscript",
	KindSlice:                   "slice",
	KindBinaryOperator:          "binary_operator",
	KindUnaryOperator:           "unary_operator",
	KindBooleanOperator:         "boolean_operator",
	KindNotOperator:             "not_operator",
	KindComparisonOperator:      "comparison_operator",
	KindConditionalExpression:   "conditional_expression",
	KindLambda:                  "lambda",
	KindNamedExpression:         "named_expression",
	KindAwait:                   "await",
	KindYield:                   "yield",
	KindParenthesizedExpression: "parenthesized_expression",
	KindExpressionList:          "expression_list",
	KindList:                    "list",
	KindTuple:                   "tuple",
	KindSet:                     "set",
	KindDictionary:              "dictionary",
	KindPair:                    "pair",
	KindListComprehension:       "list_comprehension",
	KindSetComprehension:        "set_comprehension",
	KindGeneratorExpression:     "generator_expression",
	KindDictionaryComprehension: "dictionary_comprehension",
	KindForInClause:             "for_in_clause",
	KindIfClause:                "if_clause",
	KindListSplat:               "list_splat",
	KindDictionarySplat:         "dictionary_splat",
	KindParenthesizedListSplat:  "parenthesized_list_splat",
	KindAsPattern:               "as_pattern",
	KindAsPatternTarget:         "as_pattern_target",

	KindPatternList:            "pattern_list",
	KindTuplePattern:           "tuple_pattern",
	KindListPattern:            "list_pattern",
	KindListSplatPattern:       "list_splat_pattern",
	KindDictionarySplatPattern: "dictionary_splat_pattern",
	KindCasePattern:            "case_pattern",
	KindClassPattern:           "class_pattern",
	KindComplexPattern:         "complex_pattern",
	KindDictPattern:            "dict_pattern",
	KindKeywordPattern:         "keyword_pattern",
	KindSplatPattern:           "splat_pattern",
	KindUnionPattern:           "union_pattern",

	KindString:             "string",
	KindConcatenatedString: "concatenated_string",
	KindInteger:            "integer",
	KindFloat:              "float",
	KindTrue:               "true",
	KindFalse:              "false",
	KindNone:               "none",
	KindEllipsis:           "ellipsis",
	KindComment:            "comment",
	KindLineContinuation:   "line_continuation",
}

var kindByType = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if Kind(k) != KindUnknown {
			m[name] = Kind(k)
		}
	}
	return m
}()

// String returns the tree-sitter node type the kind stands for.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// KindOf maps a tree-sitter node type to its Kind.
func KindOf(nodeType string) Kind {
	return kindByType[nodeType]
}

// Classify returns the Kind of node. A nil node is KindUnknown.
func Classify(node *sitter.Node) Kind {
	if node == nil {
		return KindUnknown
	}
	return KindOf(node.Type())
}
