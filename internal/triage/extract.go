package triage

import (
	"encoding/json"
	"strings"

	"tsguard/internal/text"
)

// fallbackConfidence marks a result recovered from unparseable model output.
const fallbackConfidence = 0.2

// Extract recovers a Result from raw model output. Models regularly violate
// the "JSON only" contract with code fences, leading prose or trailing
// commentary, so extraction runs an ordered list of parse attempts and stops
// at the first success:
//
//  1. strip a leading/trailing code fence, then parse the first balanced
//     {...} object found by brace-depth scanning,
//  2. parse the entire stripped text,
//  3. give up and return the fallback object.
//
// Extract never fails: malformed input degrades to the fallback, whose low
// confidence and "unknown" scam type signal reduced reliability. Field-level
// validation is the caller's job; this is syntactic recovery only.
func Extract(raw string) Result {
	stripped := stripFence(strings.TrimSpace(raw))

	if obj, ok := balancedObject(stripped); ok {
		var res Result
		if err := json.Unmarshal([]byte(obj), &res); err == nil {
			return res
		}
	}

	var res Result
	if err := json.Unmarshal([]byte(stripped), &res); err == nil {
		return res
	}

	return fallback(raw)
}

// stripFence removes a ```-delimited wrapper (with an optional language tag)
// when it encloses the whole text. Inner fences are left alone.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the opening fence line, including any language tag.
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// balancedObject locates the first '{' and scans forward tracking brace depth
// to find the shortest balanced object starting there.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func fallback(raw string) Result {
	summary := text.TruncateSnippet(raw, 400)
	return Result{
		Summary:    summary,
		ScamType:   "unknown",
		Actions:    []string{},
		Confidence: fallbackConfidence,
	}
}
