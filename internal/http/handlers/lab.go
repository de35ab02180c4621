package handlers

import (
	"net/http"
	"strconv"

	"profileai/internal/runlog"
	"profileai/internal/upload"
)

var labImagesRule = upload.Rule{Fields: []string{"images", "image"}, Min: 0, Max: 3, Label: "image"}

// TestPrompt runs a free-form prompt with up to 3 images and returns the raw
// model text.
func (a *App) TestPrompt(w http.ResponseWriter, r *http.Request) {
	form, err := upload.Read(w, r, a.maxUploadBytes)
	if err != nil {
		a.fail(w, r, err, msgPromptTestFailed)
		return
	}
	images, err := form.Images(labImagesRule)
	if err != nil {
		a.fail(w, r, err, msgPromptTestFailed)
		return
	}
	ctx, cancel := a.pipelineContext(r)
	defer cancel()
	res, err := a.analyzer.RunLab(ctx, form.Value("prompt"), images)
	if err != nil {
		a.fail(w, r, err, msgPromptTestFailed)
		return
	}
	a.json(w, http.StatusOK, res)
}

// ListRuns returns the newest recorded runs.
func (a *App) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := runlog.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if a.runs == nil {
		a.json(w, http.StatusOK, map[string]any{"items": []runlog.Run{}})
		return
	}
	items, err := a.runs.Recent(r.Context(), runlog.ClampLimit(limit))
	if err != nil {
		a.fail(w, r, err, msgRunsUnavailable)
		return
	}
	if items == nil {
		items = []runlog.Run{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
