package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleCase lowercases s and upper-cases the first letter of every
// space-separated word. Runs of spaces collapse to one.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
