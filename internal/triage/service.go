package triage

import (
	"context"
	"fmt"
	"log/slog"

	"tsguard/internal/retrieval"
)

// systemInstruction is the fixed system message for every triage chat call.
const systemInstruction = "You output strictly JSON. No markdown, no prose."

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Snippet, error)
}

// Service composes retrieval, prompt construction, a single chat call and
// answer extraction into one triage request.
type Service struct {
	retriever Retriever
	chat      ChatFunc
}

func NewService(r Retriever, chat ChatFunc) *Service {
	return &Service{retriever: r, chat: chat}
}

// Answer produces a triage Result for a complaint or transcript. Retrieval is
// an enhancement, not a hard dependency: if the backend is unavailable the
// prompt is built with an empty snippet set and the request proceeds. A chat
// transport failure propagates to the caller; there is no retry here.
func (s *Service) Answer(ctx context.Context, userText, langHint string, k int) (Result, error) {
	var snippets []string
	found, err := s.retriever.Search(ctx, userText, k)
	if err != nil {
		slog.WarnContext(ctx, "retrieval unavailable, answering without knowledge context", "error", err)
	} else {
		for _, sn := range found {
			snippets = append(snippets, sn.Content)
		}
	}

	prompt := BuildPrompt(userText, snippets, langHint)
	messages := []Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: prompt},
	}

	raw, err := s.chat(ctx, messages)
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	return Extract(raw), nil
}
