package resolve

import (
	_ "embed"
	"strings"
)

// stdlibNames is the union of sys.stdlib_module_names across CPython 3.10+.
//
//go:embed stdlib.txt
var stdlibNames string

var stdlib = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(stdlibNames, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}
	return set
}()

// IsStdlib reports whether name is a top-level standard library module.
func IsStdlib(name string) bool {
	_, ok := stdlib[name]
	return ok
}
