package utils

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most max runes, appending an ellipsis marker when
// anything was cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// SanitizeFilename strips path components and traversal sequences from a name
// received over the wire.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, "..", "")
	base = strings.ReplaceAll(base, "/", "_")
	base = strings.ReplaceAll(base, "\\", "_")
	return base
}

// CollapseWhitespace folds runs of whitespace (including newlines) into single
// spaces and trims the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
