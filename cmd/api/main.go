package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"profileai/internal/analysis"
	"profileai/internal/editor"
	"profileai/internal/http/handlers"
	httpapi "profileai/internal/http/httpapi"
	"profileai/internal/imagegen"
	"profileai/internal/infra"
	"profileai/internal/providers/bfl"
	"profileai/internal/providers/gemini"
	"profileai/internal/providers/openai"
	"profileai/internal/runlog"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := infra.NewLogger("production")
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	store, closeStore := openRunStore(ctx, cfg, &logger)
	defer closeStore()
	recorder := runlog.NewRecorder(store, &logger)

	chat, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create inference client")
	}
	editService, err := bfl.NewClient(bfl.Options{
		APIKey:  cfg.BFLAPIKey,
		BaseURL: cfg.BFLBaseURL,
		Model:   cfg.BFLModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create edit client")
	}

	var painter imagegen.Generator = chat.Images(openai.ImageOptions{Model: cfg.OpenAIImageModel})
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewImageClient(ctx, gemini.Options{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiImageModel,
			Logger: &logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("gemini image client unavailable, using openai images")
		} else {
			painter = g
		}
	}

	logger.Info().
		Int("openai_key_len", len(cfg.OpenAIAPIKey)).
		Int("bfl_key_len", len(cfg.BFLAPIKey)).
		Str("model", chat.Model()).
		Str("background_generator", painter.Name()).
		Msg("providers configured")
	go probeModels(chat, &logger)

	app := handlers.NewApp(handlers.Deps{
		Analyzer: analysis.NewService(chat, recorder, &logger),
		Editor: editor.New(editor.Options{
			Translator:   chat,
			Service:      editService,
			SourceLang:   language.Make(cfg.TranslateSourceLang),
			PollInterval: cfg.EditPollInterval,
			MaxAttempts:  cfg.EditPollMaxAttempts,
			Logger:       &logger,
		}),
		Backgrounds:    imagegen.NewBackgroundGenerator(painter, &logger),
		Runs:           recorder,
		Logger:         &logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
		StaticDir:      cfg.StaticDir,
	})

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   language.Make(cfg.TranslateSourceLang),
		Logger:          &logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	recorder.Wait()
	logger.Info().Msg("server stopped")
}

// openRunStore picks Postgres, then Redis, then the no-op store.
func openRunStore(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (runlog.Store, func()) {
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("run log database unavailable")
		} else {
			store := runlog.NewPostgresStore(infra.NewSQLRunner(pool, *logger))
			if err := store.EnsureSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("run log schema setup failed")
				pool.Close()
			} else {
				logger.Info().Msg("run log stored in postgres")
				return store, pool.Close
			}
		}
	}
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("run log redis unavailable")
		} else {
			logger.Info().Str("key", cfg.RunLogRedisKey).Msg("run log stored in redis")
			return runlog.NewRedisStore(client, cfg.RunLogRedisKey), func() { _ = client.Close() }
		}
	}
	logger.Info().Msg("run log disabled")
	return runlog.NopStore{}, func() {}
}

// probeModels checks the credential once at startup. Failures are logged only.
func probeModels(client *openai.Client, logger *infra.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	models, err := client.ListModels(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("model listing failed")
		return
	}
	logger.Info().Int("models", len(models)).Msg("inference credential verified")
}
