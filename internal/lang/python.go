package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the only language the analyzer understands.
var Python = &Language{
	Name:       "python",
	Extensions: []string{".py"},
	lang:       python.GetLanguage(),
}
