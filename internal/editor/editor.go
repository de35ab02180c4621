// Package editor drives one image edit from a free-text note to a finished
// result URL: translate, submit, then poll.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"profileai/internal/domain"
	"profileai/internal/infra"
	"profileai/internal/normalize"
	"profileai/internal/poll"
	"profileai/internal/prompt"
	"profileai/internal/providers/bfl"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxAttempts  = 20
)

// Translator turns an envelope into model text.
type Translator interface {
	Complete(ctx context.Context, env prompt.Envelope) (string, error)
}

// EditService submits edit jobs and reports their state.
type EditService interface {
	Submit(ctx context.Context, instruction string, image domain.UploadedImage) (domain.EditJob, error)
	Status(ctx context.Context, job domain.EditJob) (bfl.StatusReply, error)
}

type Options struct {
	Translator   Translator
	Service      EditService
	SourceLang   language.Tag
	PollInterval time.Duration
	MaxAttempts  int
	Logger       *infra.Logger
}

// Orchestrator runs edits sequentially within a call and keeps no state
// between calls.
type Orchestrator struct {
	translator   Translator
	service      EditService
	sourceLang   language.Tag
	pollInterval time.Duration
	maxAttempts  int
	logger       *infra.Logger
}

// Result is a finished edit.
type Result struct {
	URL         string
	Instruction string
	JobID       string
	Attempts    int
}

// FailureError is a terminal failure reported by the edit service. It matches
// domain.ErrEditFailed.
type FailureError struct {
	Status  string
	Payload json.RawMessage
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("image edit failed with status %q", e.Status)
}

func (e *FailureError) Is(target error) bool { return target == domain.ErrEditFailed }

// SubmissionError is a submit reply that carried no polling handle. It
// matches domain.ErrEditSubmission.
type SubmissionError struct {
	JobID   string
	Payload json.RawMessage
}

func (e *SubmissionError) Error() string {
	if len(e.Payload) == 0 {
		return fmt.Sprintf("%s: no polling url returned for job %q", domain.ErrEditSubmission, e.JobID)
	}
	return fmt.Sprintf("%s: no polling url returned for job %q: %s", domain.ErrEditSubmission, e.JobID, e.Payload)
}

func (e *SubmissionError) Is(target error) bool { return target == domain.ErrEditSubmission }

func New(opts Options) *Orchestrator {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	source := opts.SourceLang
	if source == language.Und {
		source = language.Korean
	}
	return &Orchestrator{
		translator:   opts.Translator,
		service:      opts.Service,
		sourceLang:   source,
		pollInterval: interval,
		maxAttempts:  attempts,
		logger:       logger,
	}
}

// Edit applies note to image and waits for the edited result. source names
// the note's language; language.Und selects the configured default.
func (o *Orchestrator) Edit(ctx context.Context, image domain.UploadedImage, note string, source language.Tag) (Result, error) {
	if source == language.Und {
		source = o.sourceLang
	}
	env, err := prompt.Translation(note, source)
	if err != nil {
		return Result{}, err
	}
	text, err := o.translator.Complete(ctx, env)
	if err != nil {
		return Result{}, fmt.Errorf("editor: translate note: %w", err)
	}
	instruction := normalize.Text(text)
	if instruction == "" {
		instruction = strings.TrimSpace(note)
	}

	job, err := o.service.Submit(ctx, instruction, image)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrEditSubmission, err)
	}
	if job.PollingURL == "" {
		return Result{}, &SubmissionError{JobID: job.ID, Payload: json.RawMessage(job.SubmitPayload)}
	}
	log := o.logger.With().Str("job_id", job.ID).Logger()
	log.Info().Str("instruction", instruction).Msg("edit submitted")

	res := Result{Instruction: instruction, JobID: job.ID}
	err = poll.Until(ctx, o.pollInterval, o.maxAttempts, func(ctx context.Context, attempt int) (bool, error) {
		res.Attempts = attempt
		reply, err := o.service.Status(ctx, job)
		if err != nil {
			return false, fmt.Errorf("%w: %w", domain.ErrEditFailed, err)
		}
		log.Debug().Int("attempt", attempt).Str("status", reply.RawStatus).Msg("edit polled")
		job.Status = reply.Status
		if !job.Status.Terminal() {
			return false, nil
		}
		if job.Status != domain.EditReady || reply.SampleURL == "" {
			return false, &FailureError{Status: reply.RawStatus, Payload: reply.Payload}
		}
		job.ResultURL = reply.SampleURL
		return true, nil
	})
	switch {
	case errors.Is(err, poll.ErrExhausted):
		log.Warn().Int("attempts", o.maxAttempts).Msg("edit timed out")
		return Result{}, fmt.Errorf("%w after %d attempts", domain.ErrEditTimeout, o.maxAttempts)
	case err != nil:
		log.Warn().Err(err).Msg("edit failed")
		return Result{}, err
	}
	res.URL = job.ResultURL
	log.Info().Int("attempts", res.Attempts).Msg("edit ready")
	return res, nil
}
