package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"profileai/internal/domain"
	"profileai/internal/normalize"
	"profileai/internal/upload"
)

type backgroundsResponse struct {
	Success     bool                `json:"success"`
	Backgrounds []domain.Background `json:"backgrounds"`
}

// GenerateBackgrounds renders the natural and artistic variants for a prior
// comparison report.
func (a *App) GenerateBackgrounds(w http.ResponseWriter, r *http.Request) {
	form, err := upload.Read(w, r, a.maxUploadBytes)
	if err != nil {
		a.fail(w, r, err, msgBackgroundsFailed)
		return
	}
	var comparison normalize.Result
	if raw := form.Value("profile_analysis"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &comparison); err != nil {
			a.fail(w, r, domain.NewInputError("profile_analysis must be a JSON object"), msgBackgroundsFailed)
			return
		}
	}
	summary := form.Value("aspiration_summary")
	if summary == "" {
		a.fail(w, r, domain.NewInputError("aspiration_summary is required"), msgBackgroundsFailed)
		return
	}

	ctx, cancel := a.pipelineContext(r)
	defer cancel()
	backgrounds, err := a.backgrounds.Generate(ctx, summary, comparison)
	if errors.Is(err, domain.ErrNoBackgrounds) {
		a.logger.Error().Err(err).Msg("no background variant succeeded")
		a.json(w, http.StatusBadGateway, backgroundsResponse{Success: false, Backgrounds: []domain.Background{}})
		return
	}
	if err != nil {
		a.fail(w, r, err, msgBackgroundsFailed)
		return
	}
	a.json(w, http.StatusOK, backgroundsResponse{Success: true, Backgrounds: backgrounds})
}
