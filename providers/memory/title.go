package memory

import "strings"

const (
	maxTitleRunes   = 40
	maxPreviewRunes = 80
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// DeriveTitle builds a conversation title from the content of a user message:
// surrounding whitespace is trimmed, line breaks become spaces and the result
// is cut to 40 runes. Content that is blank after trimming yields
// DefaultConversationTitle.
func DeriveTitle(content string) string {
	title := strings.TrimSpace(newlineReplacer.Replace(content))
	if title == "" {
		return DefaultConversationTitle
	}
	return truncateRunes(title, maxTitleRunes)
}

// Preview returns the first 80 runes of content.
func Preview(content string) string {
	return truncateRunes(content, maxPreviewRunes)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
