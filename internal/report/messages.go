package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/phobologic/importanalyzer/internal/exports"
)

// Printer writes reconciliation messages.
type Printer struct {
	w    io.Writer
	path *color.Color
	add  *color.Color
}

// NewPrinter creates a Printer writing to w. Color follows the terminal
// detection of fatih/color unless noColor is set.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:    w,
		path: color.New(color.FgCyan, color.Bold),
		add:  color.New(color.FgYellow),
	}
	if noColor {
		p.path.DisableColor()
		p.add.DisableColor()
	}
	return p
}

// Print writes one message per finding, in the order given:
//
//	pkg/a.py
//	__all__ = ["helper"]
//
// or, when the module already declares an export list,
//
//	m.py
//	ADD to __all__: ["y"]
func (p *Printer) Print(findings []exports.Finding) error {
	for _, f := range findings {
		if _, err := p.path.Fprintln(p.w, f.Path); err != nil {
			return err
		}
		prefix := exports.Symbol + " ="
		if f.Existing {
			prefix = "ADD to " + exports.Symbol + ":"
		}
		if _, err := p.add.Fprintln(p.w, prefix, FormatList(f.Add)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(p.w); err != nil {
			return err
		}
	}
	return nil
}

// FormatList renders names as a single-line JSON array with a space after
// each comma, the way the messages show them.
func FormatList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		data, err := Marshal(n)
		if err != nil {
			data = []byte(fmt.Sprintf("%q", n))
		}
		parts[i] = string(data)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
