// Package strcase converts identifier casing for API field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts CamelCase to snake_case while keeping acronyms
// intact: "FileHash" becomes "file_hash" and "HTTPServer" becomes
// "http_server".
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordBoundary(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordBoundary reports whether a new word starts at index i. That happens
// after a lowercase letter or digit, or where an acronym ends and a regular
// word begins ("HTTPServer" splits before "Server").
func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
