package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, folds runs of
// whitespace into one space and caps the result at maxLen runes. A maxLen of
// zero or less means no cap.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	count := 0
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace && count > 0 {
			if maxLen > 0 && count >= maxLen {
				break
			}
			b.WriteByte(' ')
			count++
		}
		pendingSpace = false
		if maxLen > 0 && count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}
