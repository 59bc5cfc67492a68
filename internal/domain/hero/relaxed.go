package hero

import (
	"strings"
)

// NormalizeRelaxedJSON rewrites JavaScript object-literal text into JSON:
// trailing semicolons are stripped, trailing commas before a closing
// bracket are dropped, bare object keys are quoted and single-quoted
// strings become double-quoted with their escapes repaired. Line and block
// comments are removed first. Content inside string literals is never
// rewritten.
func NormalizeRelaxedJSON(text string) string {
	text = stripComments(text)
	text = strings.TrimSpace(text)
	text = strings.TrimRight(text, "; \t\r\n")

	var out strings.Builder
	out.Grow(len(text) + len(text)/8)

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '"':
			i = copyDoubleQuoted(&out, text, i)
		case c == '\'':
			i = convertSingleQuoted(&out, text, i)
		case c == ',':
			j := skipSpace(text, i+1)
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				i++
				continue
			}
			out.WriteByte(c)
			i++
		case isIdentByte(c) && expectsKey(out.String()):
			j := i
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			k := skipSpace(text, j)
			if k < len(text) && text[k] == ':' {
				out.WriteByte('"')
				out.WriteString(text[i:j])
				out.WriteByte('"')
			} else {
				out.WriteString(text[i:j])
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// stripComments replaces // and /* */ comments outside string literals with
// a single space. An unterminated block comment runs to the end of text.
func stripComments(text string) string {
	if !strings.Contains(text, "/") {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			out.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(text):
				i++
				out.WriteByte(text[i])
			case c == quote:
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			out.WriteByte(c)
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				return out.String()
			}
			out.WriteByte(' ')
			i += end - 1
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return out.String()
			}
			out.WriteByte(' ')
			i += end + 3
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func copyDoubleQuoted(out *strings.Builder, text string, start int) int {
	out.WriteByte('"')
	i := start + 1
	for i < len(text) {
		c := text[i]
		out.WriteByte(c)
		i++
		if c == '\\' && i < len(text) {
			out.WriteByte(text[i])
			i++
			continue
		}
		if c == '"' {
			break
		}
	}
	return i
}

func convertSingleQuoted(out *strings.Builder, text string, start int) int {
	out.WriteByte('"')
	i := start + 1
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			next := text[i+1]
			if next == '\'' {
				out.WriteByte('\'')
			} else {
				out.WriteByte('\\')
				out.WriteByte(next)
			}
			i += 2
		case c == '"':
			out.WriteString(`\"`)
			i++
		case c == '\'':
			out.WriteByte('"')
			return i + 1
		default:
			out.WriteByte(c)
			i++
		}
	}
	return i
}

// expectsKey reports whether the last significant emitted byte opens an
// object member position.
func expectsKey(emitted string) bool {
	for i := len(emitted) - 1; i >= 0; i-- {
		switch emitted[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
