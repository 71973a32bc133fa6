// Package dashscope adapts an OpenAI-compatible chat-completion HTTP
// service to the Translator port.
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"transub/internal/ports"
)

const (
	defaultTimeout = 5 * time.Minute

	// translationTemperature is deliberately high; non-deterministic output
	// is expected and tolerated by the downstream validator.
	translationTemperature = 1.3
)

type Adapter struct {
	key     string
	baseURL string
	client  *http.Client
}

func New(apiKey, baseURL string) *Adapter {
	return &Adapter{
		key:     apiKey,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient overrides the default HTTP client (tests).
func (a *Adapter) WithHTTPClient(c *http.Client) {
	if c != nil {
		a.client = c
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system and user prompts and returns the model's raw
// reply text.
func (a *Adapter) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: translationTemperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ports.ErrAPI, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrAPI, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isClientTimeout(err) {
			return "", fmt.Errorf("%w: chat completion", ports.ErrTimeout)
		}
		return "", fmt.Errorf("%w: %v", ports.ErrAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ports.ErrAPI, resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ports.ErrAPI, err)
	}
	if len(raw.Choices) == 0 || strings.TrimSpace(raw.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion content", ports.ErrAPI)
	}
	return raw.Choices[0].Message.Content, nil
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	if apiKey != "" {
		s = strings.ReplaceAll(s, apiKey, "[REDACTED]")
	}
	s = bearerTokenRE.ReplaceAllString(s, "Bearer [REDACTED]")
	s = apiKeyFieldRE.ReplaceAllString(s, "${1}[REDACTED]")
	return s
}
