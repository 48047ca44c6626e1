package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/config"
)

// ErrNotConfigured is returned by New when no provider or key is set.
var ErrNotConfigured = errors.New("AI not configured")

const maxBriefLen = 600

// Summarizer writes a short narrative summary of the given headlines.
type Summarizer interface {
	Brief(ctx context.Context, headlines []string) (string, error)
}

// New creates a Summarizer from the given AI config.
func New(cfg *config.AIConfig, apiKey string) (Summarizer, error) {
	if cfg == nil || apiKey == "" {
		return nil, ErrNotConfigured
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &claudeProvider{apiKey: apiKey, model: model, client: client, endpoint: "https://api.anthropic.com/v1/messages"}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &openaiProvider{apiKey: apiKey, model: model, client: client, endpoint: "https://api.openai.com/v1/chat/completions"}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai)", cfg.Provider)
	}
}

const briefPrompt = `You are a wire-desk editor. Write a neutral two to three sentence brief (max 400 chars) covering the most important developments across these %d top stories. No hype, no speculation, no bullet points.

%s

Respond with ONLY the brief text.`

func formatHeadlines(headlines []string) string {
	var sb strings.Builder
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
	}
	return sb.String()
}

// cleanBrief strips labels and quoting models sometimes add and caps the
// length on a rune boundary.
func cleanBrief(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"Brief:", "BRIEF:", "Summary:", "SUMMARY:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	text = strings.Trim(text, "\"")
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxBriefLen {
		text = string(runes[:maxBriefLen-3]) + "..."
	}
	return text
}

func briefFrom(ctx context.Context, headlines []string, call func(context.Context, string) (string, error)) (string, error) {
	if len(headlines) == 0 {
		return "", errors.New("no headlines to summarize")
	}
	text, err := call(ctx, fmt.Sprintf(briefPrompt, len(headlines), formatHeadlines(headlines)))
	if err != nil {
		return "", err
	}
	brief := cleanBrief(text)
	if brief == "" {
		return "", errors.New("empty brief")
	}
	return brief, nil
}

// --- Claude provider ---

type claudeProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) Brief(ctx context.Context, headlines []string) (string, error) {
	return briefFrom(ctx, headlines, c.call)
}

func (c *claudeProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 256,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding claude response: %w", err)
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Brief(ctx context.Context, headlines []string) (string, error) {
	return briefFrom(ctx, headlines, o.call)
}

func (o *openaiProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}
