// Package gemini generates images with Gemini image models through the genai
// SDK.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"profileai/internal/infra"
)

const defaultImageModel = "gemini-2.5-flash-image"

// ErrNoImage is returned when a reply carries no inline image part.
var ErrNoImage = errors.New("gemini: response contains no image")

type Options struct {
	APIKey      string
	Model       string
	AspectRatio string
	BaseURL     string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

type ImageClient struct {
	client      *genai.Client
	model       string
	aspectRatio string
	logger      *infra.Logger
}

func NewImageClient(ctx context.Context, opts Options) (*ImageClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	aspect := strings.TrimSpace(opts.AspectRatio)
	if aspect == "" {
		aspect = "1:1"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &ImageClient{client: client, model: model, aspectRatio: aspect, logger: logger}, nil
}

// Name identifies the backend in logs.
func (c *ImageClient) Name() string { return "gemini:" + c.model }

// Generate renders promptText and returns the image as a data URL.
func (c *ImageClient) Generate(ctx context.Context, promptText string) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(promptText)},
	}}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: c.aspectRatio},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	data, mimeType, err := firstInlineImage(result)
	if err != nil {
		return "", err
	}
	c.logger.Debug().Str("model", c.model).Int("bytes", len(data)).Msg("gemini image generated")
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func firstInlineImage(result *genai.GenerateContentResponse) ([]byte, string, error) {
	if result == nil {
		return nil, "", ErrNoImage
	}
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return part.InlineData.Data, mimeType, nil
		}
	}
	return nil, "", ErrNoImage
}
