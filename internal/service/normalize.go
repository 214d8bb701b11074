package service

import "strings"

// NormalizeName trims surrounding whitespace and folds typographic quotes
// and dashes down to their plain ASCII equivalents. Pasted lists tend to
// come out of word processors, which silently substitute these.
func NormalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '“', '”': // curly double quotes
			return '"'
		case '‘', '’': // curly single quotes
			return '\''
		case '‒', '–', '—', '⸺', '⸻': // figure/en/em and longer dashes
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
}
