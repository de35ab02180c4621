package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	OpenAIOrg           string
	OpenAIImageModel    string
	BFLAPIKey           string
	BFLBaseURL          string
	BFLModel            string
	EditPollInterval    time.Duration
	EditPollMaxAttempts int
	GeminiAPIKey        string
	GeminiImageModel    string
	DatabaseURL         string
	RedisURL            string
	RunLogRedisKey      string
	StaticDir           string
	CORSAllowedOrigins  []string
	MaxUploadBytes      int64
	TranslateSourceLang string
	RateLimitPerMin     int
	RequestTimeout      time.Duration
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "4000"),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:           os.Getenv("OPENAI_ORG"),
		OpenAIImageModel:    getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		BFLAPIKey:           strings.TrimSpace(os.Getenv("BFL_API_KEY")),
		BFLBaseURL:          getEnv("BFL_BASE_URL", "https://api.bfl.ai"),
		BFLModel:            getEnv("BFL_MODEL", "flux-kontext-pro"),
		EditPollInterval:    time.Millisecond * time.Duration(getEnvInt("EDIT_POLL_INTERVAL_MS", 500)),
		EditPollMaxAttempts: getEnvInt("EDIT_POLL_MAX_ATTEMPTS", 20),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiImageModel:    getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		RunLogRedisKey:      getEnv("RUNLOG_REDIS_KEY", "profileai:runs"),
		StaticDir:           getEnv("STATIC_DIR", "frontend/out"),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		TranslateSourceLang: getEnv("TRANSLATE_SOURCE_LANG", "ko"),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RequestTimeout:      time.Second * time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.OpenAIAPIKey == "" || cfg.BFLAPIKey == "" {
		return nil, fmt.Errorf("API keys not found in environment variables. Please set OPENAI_API_KEY and BFL_API_KEY")
	}

	if cfg.EditPollMaxAttempts < 1 {
		cfg.EditPollMaxAttempts = 1
	}
	if cfg.EditPollInterval < 0 {
		cfg.EditPollInterval = 0
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
