package utils

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxStringLength bounds vendor error bodies and logged message text.
const DefaultMaxStringLength = 500

// TruncateString keeps the first maxLen runes of s and notes how many runes
// were dropped. The cut never splits a multi-byte character. A non-positive
// maxLen means DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	total := utf8.RuneCountInString(s)
	if total <= maxLen {
		return s
	}

	cut, kept := 0, 0
	for kept < maxLen {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
		kept++
	}
	return fmt.Sprintf("%s... (%d more runes)", s[:cut], total-maxLen)
}

func TruncateStringDefault(s string) string {
	return TruncateString(s, DefaultMaxStringLength)
}
