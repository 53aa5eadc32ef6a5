package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanText trims free text from callers and drops invalid UTF-8 and NUL bytes.
func CleanText(input string) string {
	cleaned := input
	if strings.Contains(cleaned, "\x00") || !utf8.ValidString(cleaned) {
		cleaned = strings.ToValidUTF8(cleaned, "")
		cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	}
	return strings.TrimSpace(cleaned)
}
