package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	CORS    CORSConfig
	Render  RenderConfig
	Extract ExtractConfig
	Match   MatchConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RenderConfig holds document rendering settings. Pdftotext and Pdftoppm are
// poppler binary names or absolute paths.
type RenderConfig struct {
	Pdftotext        string  `mapstructure:"pdftotext"`
	Pdftoppm         string  `mapstructure:"pdftoppm"`
	DPI              int     `mapstructure:"dpi"`
	MaxPages         int     `mapstructure:"max_pages"`
	MinTextChars     int     `mapstructure:"min_text_chars"`
	MinTextPageRatio float64 `mapstructure:"min_text_page_ratio"`
	MinImagePx       int     `mapstructure:"min_image_px"`
}

// ExtractConfig holds settings for the external extraction model.
type ExtractConfig struct {
	APIKey        string `mapstructure:"api_key"`
	DefaultModel  string `mapstructure:"default_model"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
	BackoffBaseMS int    `mapstructure:"backoff_base_ms"`
}

// MatchConfig holds comparison settings.
type MatchConfig struct {
	AmountTolerance float64 `mapstructure:"amount_tolerance"`
}

// Load reads configuration from environment variables with the INVOMATCH_
// prefix. It fails when the extraction API key is missing: the service
// cannot do anything useful without it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Render defaults
	v.SetDefault("render.pdftotext", "pdftotext")
	v.SetDefault("render.pdftoppm", "pdftoppm")
	v.SetDefault("render.dpi", 300)
	v.SetDefault("render.max_pages", 20)
	v.SetDefault("render.min_text_chars", 200)
	v.SetDefault("render.min_text_page_ratio", 0.5)
	v.SetDefault("render.min_image_px", 1200)

	// Extract defaults
	v.SetDefault("extract.api_key", "")
	v.SetDefault("extract.default_model", "gemini-2.0-flash")
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.timeout_secs", 60)
	v.SetDefault("extract.backoff_base_ms", 1000)

	// Match defaults
	v.SetDefault("match.amount_tolerance", 0.01)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "INVOMATCH_SERVER_PORT",
		"server.read_timeout":        "INVOMATCH_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "INVOMATCH_SERVER_WRITE_TIMEOUT",
		"server.environment":         "INVOMATCH_SERVER_ENVIRONMENT",
		"server.max_upload_mb":       "INVOMATCH_SERVER_MAX_UPLOAD_MB",
		"log.level":                  "INVOMATCH_LOG_LEVEL",
		"log.format":                 "INVOMATCH_LOG_FORMAT",
		"cors.allowed_origins":       "INVOMATCH_CORS_ALLOWED_ORIGINS",
		"render.pdftotext":           "INVOMATCH_RENDER_PDFTOTEXT",
		"render.pdftoppm":            "INVOMATCH_RENDER_PDFTOPPM",
		"render.dpi":                 "INVOMATCH_RENDER_DPI",
		"render.max_pages":           "INVOMATCH_RENDER_MAX_PAGES",
		"render.min_text_chars":      "INVOMATCH_RENDER_MIN_TEXT_CHARS",
		"render.min_text_page_ratio": "INVOMATCH_RENDER_MIN_TEXT_PAGE_RATIO",
		"render.min_image_px":        "INVOMATCH_RENDER_MIN_IMAGE_PX",
		"extract.api_key":            "INVOMATCH_EXTRACT_API_KEY",
		"extract.default_model":      "INVOMATCH_EXTRACT_DEFAULT_MODEL",
		"extract.max_attempts":       "INVOMATCH_EXTRACT_MAX_ATTEMPTS",
		"extract.timeout_secs":       "INVOMATCH_EXTRACT_TIMEOUT_SECS",
		"extract.backoff_base_ms":    "INVOMATCH_EXTRACT_BACKOFF_BASE_MS",
		"match.amount_tolerance":     "INVOMATCH_MATCH_AMOUNT_TOLERANCE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOMATCH_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOMATCH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxUploadMB:  v.GetInt64("server.max_upload_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Render = RenderConfig{
		Pdftotext:        v.GetString("render.pdftotext"),
		Pdftoppm:         v.GetString("render.pdftoppm"),
		DPI:              v.GetInt("render.dpi"),
		MaxPages:         v.GetInt("render.max_pages"),
		MinTextChars:     v.GetInt("render.min_text_chars"),
		MinTextPageRatio: v.GetFloat64("render.min_text_page_ratio"),
		MinImagePx:       v.GetInt("render.min_image_px"),
	}
	cfg.Extract = ExtractConfig{
		APIKey:        v.GetString("extract.api_key"),
		DefaultModel:  v.GetString("extract.default_model"),
		MaxAttempts:   v.GetInt("extract.max_attempts"),
		TimeoutSecs:   v.GetInt("extract.timeout_secs"),
		BackoffBaseMS: v.GetInt("extract.backoff_base_ms"),
	}
	cfg.Match = MatchConfig{
		AmountTolerance: v.GetFloat64("match.amount_tolerance"),
	}

	if cfg.Extract.APIKey == "" {
		return nil, fmt.Errorf("INVOMATCH_EXTRACT_API_KEY is not set: an extraction API key is required")
	}

	return cfg, nil
}
