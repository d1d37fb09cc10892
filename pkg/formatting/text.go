package formatting

import "unicode/utf8"

// Truncate returns s cut to at most limit runes. Non-positive limits return s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// RuneCount returns the number of characters in s, as shown by a character counter.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}
