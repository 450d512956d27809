package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidChunking is returned when overlap is not strictly smaller than the
// window. Anything else would stall the sliding window.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunk splits text into successive character windows of at most window
// characters, each advancing by window-overlap, so consecutive chunks share
// overlap characters of context. The final chunk may be shorter than window.
// Empty input yields no chunks.
func Chunk(text string, window, overlap int) ([]string, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidChunking, window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, window)
	}
	if text == "" {
		return nil, nil
	}

	// Windows count characters, not bytes, so multi-byte runes never get
	// split across a chunk boundary.
	runes := []rune(text)
	step := window - overlap
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + window
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeSnippet collapses runs of whitespace to single spaces and trims the
// result. Used on retrieved knowledge snippets before they enter a prompt.
func NormalizeSnippet(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// TruncateSnippet bounds a snippet to max characters. Truncation is applied
// per snippet and never depends on sibling snippets.
func TruncateSnippet(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
