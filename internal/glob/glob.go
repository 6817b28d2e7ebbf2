// Package glob translates Redis-style glob patterns into anchored regular expressions.
//
// Supported syntax: `*` (any run), `?` (any single character), `[abc]`, `[a-z]`,
// negated classes `[^abc]` / `[!abc]`, and `\x` to match x literally.
// An unterminated `[` matches itself.
package glob

import (
	"regexp"
	"strings"
)

// Translate returns the anchored regular expression source equivalent to pattern
func Translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	n := len(pattern)
	for i := 0; i < n; i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			if i+1 < n {
				i++
			}
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(translateClass(pattern[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}

	b.WriteString(`$`)
	return b.String()
}

// Compile translates pattern and compiles it
func Compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(Translate(pattern))
}

// Match reports whether s matches pattern. Invalid patterns match nothing
func Match(pattern, s string) bool {
	re, err := Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// classEnd returns the index of the `]` closing the class opened at start, or -1
func classEnd(p string, start int) int {
	n := len(p)
	j := start + 1
	if j < n && (p[j] == '!' || p[j] == '^') {
		j++
	}
	// a leading ']' is a literal member
	if j < n && p[j] == ']' {
		j++
	}
	for j < n && p[j] != ']' {
		if p[j] == '\\' {
			j++
		}
		j++
	}
	if j >= n {
		return -1
	}
	return j
}

func translateClass(body string) string {
	var b strings.Builder
	b.WriteByte('[')

	i := 0
	if i < len(body) && (body[i] == '!' || body[i] == '^') {
		b.WriteByte('^')
		i++
	}

	for ; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			c = body[i]
		}
		switch c {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	b.WriteByte(']')
	return b.String()
}
