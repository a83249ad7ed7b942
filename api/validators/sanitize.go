package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, collapses runs of
// whitespace and cuts the result to maxLen runes (0 means no limit).
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if runes := []rune(cleaned); maxLen > 0 && len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}
