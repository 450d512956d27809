package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tsguard/internal/triage"
)

type Chat struct {
	client *genai.Client
	model  string
}

func NewChat(ctx context.Context, apiKey, model string) (*Chat, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Chat{client: client, model: model}, nil
}

// ChatFunc adapts the Gemini client to the provider-agnostic chat boundary.
// System messages become the model's system instruction; the remaining
// messages are concatenated as the user turn.
func (c *Chat) ChatFunc() triage.ChatFunc {
	return func(ctx context.Context, messages []triage.Message) (string, error) {
		model := c.client.GenerativeModel(c.model)

		var userParts []string
		for _, m := range messages {
			if m.Role == "system" {
				model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
				continue
			}
			userParts = append(userParts, m.Content)
		}

		resp, err := model.GenerateContent(ctx, genai.Text(strings.Join(userParts, "\n")))
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("gemini returned no candidates")
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		return strings.TrimSpace(sb.String()), nil
	}
}

func (c *Chat) Close() error {
	return c.client.Close()
}
