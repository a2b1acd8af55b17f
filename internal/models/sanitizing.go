package models

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// NormalizeText prepares user-submitted text for storage: trims surrounding
// whitespace, normalizes line endings and guarantees valid UTF-8. Browsers
// posting forms from legacy pages occasionally submit Latin-1 bytes; those
// are converted rather than replaced.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	if utf8.ValidString(text) {
		return text
	}

	// Try Latin-1 (ISO-8859-1) to UTF-8 conversion
	charsetDecoder := charmap.ISO8859_1.NewDecoder()
	result, _, err := transform.String(charsetDecoder, text)
	if err != nil {
		// Fallback: replace invalid UTF-8 sequences with replacement character
		return strings.ToValidUTF8(text, "�")
	}
	return result
}
