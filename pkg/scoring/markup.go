package scoring

import (
	"strings"

	"golang.org/x/net/html"
)

// formTag is a <form> start tag.
type formTag struct {
	action    string
	hasAction bool
}

// inputTag is an <input> start tag.
type inputTag struct {
	typ  string
	name string
}

// markup holds the tags the markup rules care about, in document order.
type markup struct {
	forms   []formTag
	inputs  []inputTag
	scripts []string // src attribute of every <script src=...>
}

// parseMarkup tokenizes the document once. The tokenizer lower-cases tag and
// attribute names, attribute values are kept as written. Broken markup simply
// yields fewer tags.
func parseMarkup(doc string) markup {
	var m markup
	if doc == "" {
		return m
	}

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a read error; either way keep what was parsed so far
			return m
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := map[string]string{}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if _, dup := attrs[string(key)]; !dup {
					attrs[string(key)] = string(val)
				}
			}

			switch string(name) {
			case "form":
				action, ok := attrs["action"]
				m.forms = append(m.forms, formTag{action: action, hasAction: ok})
			case "input":
				m.inputs = append(m.inputs, inputTag{typ: attrs["type"], name: attrs["name"]})
			case "script":
				if src, ok := attrs["src"]; ok {
					m.scripts = append(m.scripts, src)
				}
			}
		default:
		}
	}
}

// maxCallSpan caps the bytes of arguments read for one setTimeout call, so
// the scan stays linear in the size of the document. Calls whose argument
// list does not close within it are skipped.
const maxCallSpan = 1024

// setTimeoutDelays returns the literal delay argument of every setTimeout
// call found in src. Calls whose argument list cannot be delimited are skipped.
func setTimeoutDelays(src string) []string {
	const call = "setTimeout"

	var delays []string
	for i := 0; i < len(src); {
		idx := strings.Index(src[i:], call)
		if idx < 0 {
			break
		}
		pos := i + idx + len(call)
		i = pos

		for pos < len(src) && isSpace(src[pos]) {
			pos++
		}
		if pos >= len(src) || src[pos] != '(' {
			continue
		}

		rest := src[pos+1:]
		if len(rest) > maxCallSpan {
			rest = rest[:maxCallSpan]
		}
		args, ok := callArgs(rest)
		if ok && len(args) >= 2 {
			delays = append(delays, strings.TrimSpace(args[1]))
		}
	}

	return delays
}

// callArgs splits the top-level arguments of a call whose opening parenthesis
// has already been consumed. Nested brackets and quoted strings are skipped.
func callArgs(s string) ([]string, bool) {
	var (
		args  []string
		depth int
		quote byte
		start int
	)
	for j := 0; j < len(s); j++ {
		c := s[j]
		if quote != 0 {
			switch c {
			case '\\':
				j++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				if c != ')' {
					return nil, false
				}

				return append(args, s[start:j]), true
			}
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:j])
				start = j + 1
			}
		}
	}

	return nil, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
