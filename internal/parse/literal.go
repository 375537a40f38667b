package parse

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/unicode/runenames"
)

// StringConstant returns the value of a plain string literal node, including
// implicitly concatenated literals ("a" "b"). Byte strings, f-strings and any
// other non-constant shape yield ok == false.
func StringConstant(node *sitter.Node, source []byte) (value string, ok bool) {
	switch Classify(node) {
	case KindString:
		return decodeStringLiteral(NodeText(node, source))
	case KindConcatenatedString:
		var b strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if Classify(child) == KindComment {
				continue
			}
			part, ok := StringConstant(child, source)
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	default:
		return "", false
	}
}

func decodeStringLiteral(text string) (string, bool) {
	quote := strings.IndexAny(text, `'"`)
	if quote < 0 {
		return "", false
	}

	raw := false
	for _, r := range strings.ToLower(text[:quote]) {
		switch r {
		case 'r':
			raw = true
		case 'u':
		default:
			// b, f and t prefixes are not plain str constants.
			return "", false
		}
	}

	body := text[quote:]
	delim := body[:1]
	if strings.HasPrefix(body, delim+delim+delim) && len(body) >= 6 {
		delim = delim + delim + delim
	}
	if len(body) < 2*len(delim) || !strings.HasSuffix(body, delim) {
		return "", false
	}
	inner := body[len(delim) : len(body)-len(delim)]

	if raw || !strings.Contains(inner, `\`) {
		return inner, true
	}
	return unescape(inner)
}

// hexDigits is the fixed width of each hexadecimal escape.
var hexDigits = map[byte]int{'x': 2, 'u': 4, 'U': 8}

var simpleEscapes = map[byte]byte{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// unescape applies Python's escape rules to a non-raw string body. Unknown
// escapes are kept as written and a backslash-newline continues the line.
func unescape(inner string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		e := inner[i]
		if r, ok := simpleEscapes[e]; ok {
			b.WriteByte(r)
			continue
		}
		switch {
		case e == '\n':
		case e == '\r':
			if i+1 < len(inner) && inner[i+1] == '\n' {
				i++
			}
		case e >= '0' && e <= '7':
			j := i + 1
			for j < len(inner) && j < i+3 && inner[j] >= '0' && inner[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(inner[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case e == 'x' || e == 'u' || e == 'U':
			n := hexDigits[e]
			if i+n >= len(inner) {
				return "", false
			}
			v, err := strconv.ParseUint(inner[i+1:i+1+n], 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", false
			}
			b.WriteRune(rune(v))
			i += n
		case e == 'N':
			end := strings.IndexByte(inner[i:], '}')
			if !strings.HasPrefix(inner[i:], "N{") || end < 0 {
				return "", false
			}
			r, ok := runeNamed(inner[i+2 : i+end])
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i += end
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), true
}

var (
	namesOnce sync.Once
	runeNames map[string]rune
)

// runeNamed looks up a character by its Unicode name, case-insensitively.
func runeNamed(name string) (rune, bool) {
	namesOnce.Do(func() {
		runeNames = make(map[string]rune)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			n := runenames.Name(r)
			if n == "" || strings.HasPrefix(n, "<") {
				continue
			}
			runeNames[n] = r
		}
	})
	r, ok := runeNames[strings.ToUpper(name)]
	return r, ok
}

// StringList returns the string constants of a list literal. Every element
// must be a plain string constant.
func StringList(node *sitter.Node, source []byte) ([]string, error) {
	if node == nil {
		return nil, fmt.Errorf("expected a list literal, got nothing")
	}
	if Classify(node) != KindList {
		return nil, fmt.Errorf("line %d: expected a list literal, got %s", Line(node), node.Type())
	}
	var values []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if Classify(child) == KindComment {
			continue
		}
		value, ok := StringConstant(child, source)
		if !ok {
			return nil, fmt.Errorf("line %d: list element %s is not a string constant", Line(child), NodeText(child, source))
		}
		values = append(values, value)
	}
	return values, nil
}
