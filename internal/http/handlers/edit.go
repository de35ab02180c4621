package handlers

import (
	"net/http"

	"profileai/internal/editor"
	"profileai/internal/middleware"
	"profileai/internal/upload"
)

var editImageRule = upload.Rule{Fields: []string{"image"}, Min: 1, Max: 1, Label: "image"}

// EditImage applies an improvement note to the uploaded photo and returns the
// edited image URL.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	form, err := upload.Read(w, r, a.maxUploadBytes)
	if err != nil {
		a.fail(w, r, err, msgEditFailed)
		return
	}
	images, err := form.Images(editImageRule)
	if err != nil {
		a.fail(w, r, err, msgEditFailed)
		return
	}
	note, err := editor.ResolveNote(form.Value("prompt"), form.Value("improvements"), form.Value("improvement_index"))
	if err != nil {
		a.fail(w, r, err, msgEditFailed)
		return
	}
	ctx, cancel := a.pipelineContext(r)
	defer cancel()
	res, err := a.editor.Edit(ctx, images[0], note, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err, msgEditFailed)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"editedImageUrl": res.URL})
}
