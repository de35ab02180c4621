package handlers

import (
	"net/http"

	"profileai/internal/analysis"
	"profileai/internal/domain"
	"profileai/internal/upload"
)

var (
	aspirationImagesRule = upload.Rule{Fields: []string{"image", "images"}, Min: 1, Max: 3, Label: "aspiration image"}
	profileImageRule     = upload.Rule{Fields: []string{"profile", "profiles"}, Min: 1, Max: 1, Label: "profile image"}
	comparisonSourceRule = upload.Rule{Fields: []string{"aspiration"}, Min: 1, Max: 3, Label: "aspiration image"}
)

// AnalyzeAspiration extracts the style report from 1 to 3 images.
func (a *App) AnalyzeAspiration(w http.ResponseWriter, r *http.Request) {
	form, err := upload.Read(w, r, a.maxUploadBytes)
	if err != nil {
		a.fail(w, r, err, msgAnalysisFailed)
		return
	}
	images, err := form.Images(aspirationImagesRule)
	if err != nil {
		a.fail(w, r, err, msgAnalysisFailed)
		return
	}
	ctx, cancel := a.pipelineContext(r)
	defer cancel()
	res, err := a.analyzer.AnalyzeStyle(ctx, images)
	if err != nil {
		a.fail(w, r, err, msgAnalysisFailed)
		return
	}
	a.result(w, res)
}

// AnalyzeProfile compares one profile photo with an aspiration given as a
// prior style report, a plain summary, or aspiration images.
func (a *App) AnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	form, err := upload.Read(w, r, a.maxUploadBytes)
	if err != nil {
		a.fail(w, r, err, msgProfileFailed)
		return
	}
	profiles, err := form.Images(profileImageRule)
	if err != nil {
		a.fail(w, r, err, msgProfileFailed)
		return
	}
	profile := profiles[0]

	var summary string
	var aspiration []domain.UploadedImage
	switch {
	case form.Value("aspiration_report") != "":
		summary, err = analysis.SummaryFromReport(form.Value("aspiration_report"))
	case form.Value("aspiration_summary") != "":
		summary = form.Value("aspiration_summary")
	default:
		aspiration, err = form.Images(comparisonSourceRule)
		if err != nil && len(form.Files) == len(profiles) {
			err = domain.NewInputError("aspiration_report or aspiration images are required")
		}
	}
	if err != nil {
		a.fail(w, r, err, msgProfileFailed)
		return
	}

	ctx, cancel := a.pipelineContext(r)
	defer cancel()
	if len(aspiration) > 0 {
		res, err := a.analyzer.CompareWithImages(ctx, profile, aspiration)
		if err != nil {
			a.fail(w, r, err, msgProfileFailed)
			return
		}
		a.result(w, res)
		return
	}
	res, err := a.analyzer.CompareProfile(ctx, profile, summary)
	if err != nil {
		a.fail(w, r, err, msgProfileFailed)
		return
	}
	a.result(w, res)
}
