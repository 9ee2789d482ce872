package utils

import "unicode/utf8"

const ellipsis = "..."

// Preview shortens s to at most limit runes, appending "..." when text was
// cut. It is meant for logs and echoed previews only.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + ellipsis
		}
		count++
	}
	return s
}

// ShortID returns the first n runes of an identifier followed by "...",
// used to keep user ids out of logs in full.
func ShortID(id string, n int) string {
	return Preview(id, n)
}
