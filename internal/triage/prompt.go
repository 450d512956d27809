package triage

import (
	"fmt"
	"strings"

	"tsguard/internal/text"
)

// answerSchema is embedded verbatim in every prompt so the model is told the
// exact JSON shape to return. Keep in sync with Result.
const answerSchema = `{"type":"object","properties":{"summary":{"type":"string"},"scam_type":{"type":"string"},"actions":{"type":"array","items":{"type":"string"}},"sms_en":{"type":"string"},"sms_ms":{"type":"string"},"confidence":{"type":"number","minimum":0,"maximum":1}},"required":["summary","scam_type","actions","sms_en","sms_ms","confidence"]}`

// snippetMaxLen bounds each knowledge snippet inside the prompt. Applied per
// snippet after whitespace normalization.
const snippetMaxLen = 700

// BuildPrompt assembles the triage instruction prompt: role and locale, the
// JSON schema contract, the retrieved knowledge snippets, then the raw user
// text. Pure function, deterministic for identical inputs.
func BuildPrompt(userText string, kbSnippets []string, langHint string) string {
	var kb strings.Builder
	for i, s := range kbSnippets {
		if i > 0 {
			kb.WriteString("\n\n")
		}
		kb.WriteString("- ")
		kb.WriteString(text.TruncateSnippet(text.NormalizeSnippet(s), snippetMaxLen))
	}

	return fmt.Sprintf(`You are a telco fraud triage assistant for Malaysia (language hint: %s). Use the knowledge snippets strictly.
Return ONLY JSON matching this JSON Schema (no commentary, no markdown):
%s

Fill fields with: (1) short summary, (2) likely scam type, (3) recommended actions with policy refs,
(4) bilingual SMS template fields: sms_en and sms_ms, (5) confidence 0-1.

Knowledge:
%s

Customer complaint/transcript:
%s
`, langHint, answerSchema, kb.String(), userText)
}
