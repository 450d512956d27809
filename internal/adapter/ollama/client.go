package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tsguard/internal/triage"
)

// Client talks to a local Ollama server. It is the zero-configuration chat
// provider used when no hosted API key is set.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []triage.Message `json:"messages"`
	Stream   bool             `json:"stream"`
}

type chatResponse struct {
	Message triage.Message `json:"message"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// ChatFunc adapts the client to the provider-agnostic chat boundary. The chat
// endpoint is tried first; older Ollama builds only expose generate, so a
// failed chat call falls back to a flattened-prompt generate call.
func (c *Client) ChatFunc() triage.ChatFunc {
	return func(ctx context.Context, messages []triage.Message) (string, error) {
		reply, err := c.chat(ctx, messages)
		if err == nil {
			return reply, nil
		}

		return c.generate(ctx, flatten(messages))
	}
}

func (c *Client) chat(ctx context.Context, messages []triage.Message) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "/api/chat", chatRequest{Model: c.model, Messages: messages, Stream: false}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var resp generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{Model: c.model, Prompt: prompt, Stream: false}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func flatten(messages []triage.Message) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.ToUpper(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
