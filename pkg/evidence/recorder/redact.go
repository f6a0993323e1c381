package recorder

import "unicode/utf8"

// TruncateString truncates s to at most maxLen bytes, appending "..." when
// anything was cut. It never splits a UTF-8 sequence.
//
// Returns the original string if it's not longer than maxLen.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}

	cut := maxLen
	if maxLen > 3 {
		cut = maxLen - 3
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	if maxLen <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
