package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const defaultImageModel = "dall-e-3"

type ImageOptions struct {
	Model string
	Size  string
}

// ImageClient generates images through the images/generations endpoint. It
// shares credentials and transport with the chat client.
type ImageClient struct {
	chat  *Client
	model string
	size  string
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Images derives an image client from c.
func (c *Client) Images(opts ImageOptions) *ImageClient {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = "1024x1024"
	}
	return &ImageClient{chat: c, model: model, size: size}
}

// Name identifies the backend in logs.
func (g *ImageClient) Name() string { return "openai:" + g.model }

// Generate returns a URL for one generated image. Inline base64 replies are
// returned as data URLs.
func (g *ImageClient) Generate(ctx context.Context, promptText string) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(imageRequest{Model: g.model, Prompt: promptText, N: 1, Size: g.size}); err != nil {
		return "", &InferenceError{Kind: KindUnknown, Message: "encode request", Err: err}
	}
	req, err := g.chat.newRequest(ctx, http.MethodPost, "/images/generations", &buf)
	if err != nil {
		return "", &InferenceError{Kind: KindUnknown, Message: "build request", Err: err}
	}
	resp, err := g.chat.client.Do(req)
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
	var out imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &InferenceError{Kind: KindUnknown, Message: "decode response", Err: err}
	}
	for _, item := range out.Data {
		if u := strings.TrimSpace(item.URL); u != "" {
			return u, nil
		}
		if b64 := strings.TrimSpace(item.B64JSON); b64 != "" {
			return "data:image/png;base64," + b64, nil
		}
	}
	return "", &InferenceError{Kind: KindUnknown, Message: "image response is empty", Err: errors.New("no data")}
}
