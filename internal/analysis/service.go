// Package analysis runs the inference pipeline: build the envelope, call the
// model, normalize the reply and hand the run to the run log.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"profileai/internal/domain"
	"profileai/internal/infra"
	"profileai/internal/normalize"
	"profileai/internal/prompt"
	"profileai/internal/runlog"
)

// Gateway is the inference call.
type Gateway interface {
	Complete(ctx context.Context, env prompt.Envelope) (string, error)
}

// Recorder receives finished runs.
type Recorder interface {
	Record(entry runlog.Entry) string
}

type Service struct {
	gateway  Gateway
	recorder Recorder
	logger   *infra.Logger
}

func NewService(gateway Gateway, recorder Recorder, logger *infra.Logger) *Service {
	if logger == nil {
		logger = infra.NopLogger()
	}
	if recorder == nil {
		recorder = runlog.NewRecorder(nil, logger)
	}
	return &Service{gateway: gateway, recorder: recorder, logger: logger}
}

// LabResult is the raw reply of a prompt lab run.
type LabResult struct {
	Text  string `json:"text"`
	RunID string `json:"runId"`
}

// AnalyzeStyle extracts the style report from 1 to 3 aspiration images.
func (s *Service) AnalyzeStyle(ctx context.Context, images []domain.UploadedImage) (normalize.Result, error) {
	env, err := prompt.Style(images)
	if err != nil {
		return normalize.Result{}, err
	}
	return s.structured(ctx, env, normalize.Style)
}

// CompareProfile scores a profile photo against an aspiration summary.
func (s *Service) CompareProfile(ctx context.Context, profile domain.UploadedImage, aspirationSummary string) (normalize.Result, error) {
	env, err := prompt.Comparison(profile, aspirationSummary)
	if err != nil {
		return normalize.Result{}, err
	}
	return s.structured(ctx, env, normalize.Comparison)
}

// CompareWithImages derives the aspiration from images first and then
// compares the profile against it.
func (s *Service) CompareWithImages(ctx context.Context, profile domain.UploadedImage, aspiration []domain.UploadedImage) (normalize.Result, error) {
	report, err := s.AnalyzeStyle(ctx, aspiration)
	if err != nil {
		return normalize.Result{}, err
	}
	summary := prompt.SummarizeStyleReport(report)
	if summary == "" {
		summary = strings.TrimSpace(report.Raw)
	}
	if summary == "" {
		return normalize.Result{}, fmt.Errorf("%w: aspiration images produced no usable style report", domain.ErrInference)
	}
	return s.CompareProfile(ctx, profile, summary)
}

// RunLab sends a free-form prompt and returns the model text untouched.
func (s *Service) RunLab(ctx context.Context, text string, images []domain.UploadedImage) (LabResult, error) {
	env, err := prompt.Lab(text, images)
	if err != nil {
		return LabResult{}, err
	}
	started := time.Now()
	reply, err := s.gateway.Complete(ctx, env)
	runID := s.recorder.Record(runlog.Entry{
		UseCase:    string(env.UseCase()),
		Prompt:     env.Instruction(),
		ResultText: reply,
		Images:     env.Images(),
		Err:        err,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("use_case", string(env.UseCase())).Str("run_id", runID).Msg("inference failed")
		return LabResult{}, err
	}
	s.logger.Info().Str("use_case", string(env.UseCase())).Str("run_id", runID).Dur("took", time.Since(started)).Msg("inference completed")
	return LabResult{Text: reply, RunID: runID}, nil
}

func (s *Service) structured(ctx context.Context, env prompt.Envelope, schema normalize.Schema) (normalize.Result, error) {
	started := time.Now()
	reply, err := s.gateway.Complete(ctx, env)
	if err != nil {
		runID := s.recorder.Record(runlog.Entry{UseCase: string(env.UseCase()), Prompt: env.Instruction(), Images: env.Images(), Err: err})
		s.logger.Error().Err(err).Str("use_case", string(env.UseCase())).Str("run_id", runID).Msg("inference failed")
		return normalize.Result{}, err
	}
	res := normalize.Normalize(reply, schema)
	runID := s.recorder.Record(runlog.Entry{
		UseCase:    string(env.UseCase()),
		Prompt:     env.Instruction(),
		ResultText: reply,
		Fallback:   res.Fallback,
		Images:     env.Images(),
	})
	event := s.logger.Info()
	if res.Fallback {
		event = s.logger.Warn()
	}
	event.Str("use_case", string(env.UseCase())).
		Str("run_id", runID).
		Int("images", len(env.Images())).
		Bool("fallback", res.Fallback).
		Dur("took", time.Since(started)).
		Msg("inference completed")
	return res, nil
}

// SummaryFromReport turns a previously returned style report (JSON text) into
// the aspiration summary used for comparison.
func SummaryFromReport(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewInputError("aspiration_report is empty")
	}
	var report normalize.Result
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return "", domain.NewInputError("aspiration_report must be a JSON object")
	}
	summary := prompt.SummarizeStyleReport(report)
	if summary == "" {
		return "", domain.NewInputError("aspiration_report has no style fields")
	}
	return summary, nil
}
