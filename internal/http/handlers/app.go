package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"profileai/internal/analysis"
	"profileai/internal/domain"
	"profileai/internal/editor"
	"profileai/internal/infra"
	"profileai/internal/normalize"
	"profileai/internal/runlog"
)

// Analyzer runs the structured and free-form inference pipelines.
type Analyzer interface {
	AnalyzeStyle(ctx context.Context, images []domain.UploadedImage) (normalize.Result, error)
	CompareProfile(ctx context.Context, profile domain.UploadedImage, aspirationSummary string) (normalize.Result, error)
	CompareWithImages(ctx context.Context, profile domain.UploadedImage, aspiration []domain.UploadedImage) (normalize.Result, error)
	RunLab(ctx context.Context, text string, images []domain.UploadedImage) (analysis.LabResult, error)
}

// ImageEditor applies an improvement note to a photo.
type ImageEditor interface {
	Edit(ctx context.Context, image domain.UploadedImage, note string, source language.Tag) (editor.Result, error)
}

// BackgroundGenerator renders background variants.
type BackgroundGenerator interface {
	Generate(ctx context.Context, aspirationSummary string, comparison normalize.Result) ([]domain.Background, error)
}

// RunReader lists recorded runs.
type RunReader interface {
	Recent(ctx context.Context, limit int) ([]runlog.Run, error)
}

type Deps struct {
	Analyzer       Analyzer
	Editor         ImageEditor
	Backgrounds    BackgroundGenerator
	Runs           RunReader
	Logger         *infra.Logger
	MaxUploadBytes int64
	RequestTimeout time.Duration
	StaticDir      string
}

type App struct {
	analyzer       Analyzer
	editor         ImageEditor
	backgrounds    BackgroundGenerator
	runs           RunReader
	logger         *infra.Logger
	maxUploadBytes int64
	requestTimeout time.Duration
	staticDir      string
}

func NewApp(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &App{
		analyzer:       deps.Analyzer,
		editor:         deps.Editor,
		backgrounds:    deps.Backgrounds,
		runs:           deps.Runs,
		logger:         logger,
		maxUploadBytes: deps.MaxUploadBytes,
		requestTimeout: timeout,
		staticDir:      deps.StaticDir,
	}
}

// pipelineContext detaches work from the client connection and bounds it by
// the request timeout.
func (a *App) pipelineContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), a.requestTimeout)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// result writes a normalized object and flags fallbacks in a header.
func (a *App) result(w http.ResponseWriter, res normalize.Result) {
	if res.Fallback {
		w.Header().Set("X-Result-Fallback", "true")
	} else {
		w.Header().Set("X-Result-Fallback", "false")
	}
	a.json(w, http.StatusOK, res)
}
