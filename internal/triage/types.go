package triage

import "context"

// Message is a single chat turn sent to a language model provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatFunc is the provider-agnostic chat completion boundary. Implementations
// may be slow (tens of seconds) and fail independently; callers must not hold
// locks across an invocation. The orchestrator performs a single attempt per
// request; retry policy belongs to the transport layer.
type ChatFunc func(ctx context.Context, messages []Message) (string, error)

// Result is the structured bilingual triage output. Produced per request,
// never persisted by this package.
type Result struct {
	Summary    string   `json:"summary"`
	ScamType   string   `json:"scam_type"`
	Actions    []string `json:"actions"`
	SMSEn      string   `json:"sms_en"`
	SMSMs      string   `json:"sms_ms"`
	Confidence float64  `json:"confidence"`
}
