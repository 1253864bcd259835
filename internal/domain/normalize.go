package domain

import (
	"strings"
)

// NormalizeLabel prepares an upstream label for case-insensitive lookup:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - collapses any run of whitespace (tabs, newlines, NBSP) into one space
//
// Punctuation such as "/" and "-" is preserved.
func NormalizeLabel(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0'
	})
	return strings.Join(fields, " ")
}
