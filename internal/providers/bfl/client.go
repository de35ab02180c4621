// Package bfl is a client for the Black Forest Labs image editing API.
package bfl

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

	"profileai/internal/domain"
	"profileai/internal/infra"
)

const (
	defaultBaseURL = "https://api.bfl.ai"
	defaultModel   = "flux-kontext-pro"
	defaultTimeout = 30 * time.Second
	maxBody        = 1 << 20
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *infra.Logger
}

// APIError is a non-2xx reply from the edit service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bfl: status %d: %s", e.StatusCode, e.Body)
}

// StatusReply is one poll result.
type StatusReply struct {
	Status    domain.EditStatus
	RawStatus string
	SampleURL string
	Payload   json.RawMessage
}

type submitRequest struct {
	Prompt     string `json:"prompt"`
	InputImage string `json:"input_image"`
}

type submitResponse struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result *struct {
		Sample string `json:"sample"`
	} `json:"result"`
}

func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("bfl: api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.Trim(strings.TrimSpace(opts.Model), "/")
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
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model, client: client, logger: logger}, nil
}

// Submit starts an edit of image following instruction. The returned job
// carries the polling URL handed out by the service.
func (c *Client) Submit(ctx context.Context, instruction string, image domain.UploadedImage) (domain.EditJob, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(submitRequest{Prompt: instruction, InputImage: image.Base64()}); err != nil {
		return domain.EditJob{}, fmt.Errorf("bfl: encode submit: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return domain.EditJob{}, fmt.Errorf("bfl: build submit: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	body, status, err := c.do(req)
	if err != nil {
		return domain.EditJob{}, err
	}
	if status >= 300 {
		return domain.EditJob{}, &APIError{StatusCode: status, Body: string(body)}
	}
	var out submitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.EditJob{}, fmt.Errorf("bfl: decode submit: %w", err)
	}
	c.logger.Debug().Str("job_id", out.ID).Bool("has_polling_url", out.PollingURL != "").Msg("bfl job submitted")
	return domain.EditJob{
		ID:            out.ID,
		PollingURL:    strings.TrimSpace(out.PollingURL),
		Status:        domain.EditPending,
		SubmitPayload: body,
	}, nil
}

// Status reads the current state of job once.
func (c *Client) Status(ctx context.Context, job domain.EditJob) (StatusReply, error) {
	if job.PollingURL == "" {
		return StatusReply{}, errors.New("bfl: job has no polling url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.PollingURL, nil)
	if err != nil {
		return StatusReply{}, fmt.Errorf("bfl: build status: %w", err)
	}
	c.authorize(req)
	body, status, err := c.do(req)
	if err != nil {
		return StatusReply{}, err
	}
	if status >= 300 {
		return StatusReply{}, &APIError{StatusCode: status, Body: string(body)}
	}
	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return StatusReply{}, fmt.Errorf("bfl: decode status: %w", err)
	}
	reply := StatusReply{
		Status:    domain.ParseEditStatus(out.Status),
		RawStatus: out.Status,
		Payload:   json.RawMessage(body),
	}
	if out.Result != nil {
		reply.SampleURL = strings.TrimSpace(out.Result.Sample)
	}
	return reply, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-key", c.apiKey)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("bfl: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("bfl: read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
