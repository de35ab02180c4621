// Package openai talks to the OpenAI chat-completions, images and models
// endpoints.
package openai

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

	"profileai/internal/infra"
	"profileai/internal/prompt"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
	defaultTimeout = 90 * time.Second
	maxErrorBody   = 64 << 10
)

type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client is a chat-completions client with vision input.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	logger       *infra.Logger
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		apiKey:       apiKey,
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		logger:       logger,
	}, nil
}

// Model reports the chat model in use.
func (c *Client) Model() string { return c.model }

// Complete sends env and returns the first choice's text. Every failure is an
// *InferenceError; nothing is retried.
func (c *Client) Complete(ctx context.Context, env prompt.Envelope) (string, error) {
	payload := chatRequest{
		Model:     c.model,
		Messages:  buildMessages(env),
		MaxTokens: env.MaxTokens(),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", &InferenceError{Kind: KindUnknown, Message: "encode request", Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", &buf)
	if err != nil {
		return "", &InferenceError{Kind: KindUnknown, Message: "build request", Err: err}
	}
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &InferenceError{Kind: KindTransport, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusError(resp.StatusCode, body)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &InferenceError{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &InferenceError{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: "response has no choices"}
	}
	c.logger.Debug().
		Str("use_case", string(env.UseCase())).
		Int("images", len(env.Images())).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Str("finish_reason", out.Choices[0].FinishReason).
		Dur("took", time.Since(started)).
		Msg("openai completion")
	return out.Choices[0].Message.Content, nil
}

func buildMessages(env prompt.Envelope) []chatMessage {
	var messages []chatMessage
	if system := strings.TrimSpace(env.System()); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	images := env.Images()
	if len(images) == 0 {
		return append(messages, chatMessage{Role: "user", Content: env.Instruction()})
	}
	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Type: "text", Text: env.Instruction()})
	for _, img := range images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}})
	}
	return append(messages, chatMessage{Role: "user", Content: parts})
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the model ids visible to the configured key. It is used
// as a startup credential probe.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, &InferenceError{Kind: KindUnknown, Message: "build request", Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &InferenceError{Kind: KindTransport, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, body)
	}
	var out modelList
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &InferenceError{Kind: KindUnknown, Message: "decode models", Err: err}
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", c.baseURL, path), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	return req, nil
}
