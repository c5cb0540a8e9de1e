package util

import "strings"

// Fold is the comparison form of a filter value: trimmed and lower-cased.
func Fold(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// SameText reports whether a and b are equal ignoring case and surrounding space.
func SameText(a, b string) bool {
	return Fold(a) == Fold(b)
}

// CleanHeader strips surrounding whitespace from a spreadsheet column name.
func CleanHeader(input string) string {
	return strings.TrimSpace(input)
}

// SanitizeFilename keeps a value safe for use as a single path element.
func SanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
