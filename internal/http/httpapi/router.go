package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"profileai/internal/http/handlers"
	"profileai/internal/infra"
	"profileai/internal/middleware"
)

type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   language.Tag
	Logger          *infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.ContextLogger(*logger),
		middleware.Logger(*logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale),
	)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/analyze-aspiration", app.AnalyzeAspiration)
		r.Post("/analyze-profile", app.AnalyzeProfile)
		r.Post("/edit-image", app.EditImage)
		r.Post("/generate-backgrounds", app.GenerateBackgrounds)
		r.Post("/test-prompt", app.TestPrompt)
	})

	r.Get("/admin/runs", app.ListRuns)

	r.NotFound(app.SPA)

	return r
}
