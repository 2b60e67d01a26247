package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const maxResponseBytes = 1 << 20

// OpenAIProvider is a Completer for any OpenAI-compatible chat completions
// endpoint that supports json_schema response formats.
type OpenAIProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider targets baseURL + "/chat/completions".
func NewOpenAIProvider(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type schemaFormat struct {
	Type       string `json:"type"`
	JSONSchema struct {
		Name   string         `json:"name"`
		Strict bool           `json:"strict"`
		Schema map[string]any `json:"schema"`
	} `json:"json_schema"`
}

type completionRequest struct {
	Model          string       `json:"model"`
	Messages       []message    `json:"messages"`
	Temperature    int          `json:"temperature"`
	MaxTokens      int          `json:"max_tokens,omitempty"`
	ResponseFormat schemaFormat `json:"response_format"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) body(req Request) completionRequest {
	cr := completionRequest{
		Model:     p.model,
		MaxTokens: req.MaxTokens,
	}
	if req.System != "" {
		cr.Messages = append(cr.Messages, message{Role: "system", Content: req.System})
	}
	cr.Messages = append(cr.Messages, message{Role: "user", Content: req.Prompt})
	cr.ResponseFormat.Type = "json_schema"
	cr.ResponseFormat.JSONSchema.Name = req.SchemaName
	cr.ResponseFormat.JSONSchema.Strict = true
	cr.ResponseFormat.JSONSchema.Schema = req.Schema
	return cr
}

// Complete returns the first choice's content. Non-200 responses come back
// as *model.HTTPError so callers can back off on 429s.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(p.body(req))
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfterSeconds(resp.Header.Get("Retry-After")),
			Err:        errors.New(string(bytes.TrimSpace(raw))),
		}
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	switch {
	case cr.Error != nil:
		return "", fmt.Errorf("completion failed (%s): %s", cr.Error.Type, cr.Error.Message)
	case len(cr.Choices) == 0:
		return "", errors.New("completion returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

func retryAfterSeconds(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
