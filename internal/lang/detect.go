// Package lang provides best-effort language detection for complaint text.
// Detection only tags results; it never gates processing.
package lang

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const fallback = "en"

// Detect returns the ISO 639-1 code of the dominant language in text, or
// "en" when the text is too short or ambiguous to classify reliably.
func Detect(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fallback
	}

	info := whatlanggo.Detect(trimmed)
	if !info.IsReliable() {
		return fallback
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return fallback
	}
	return code
}
