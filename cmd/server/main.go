package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"invomatch/internal/config"
	"invomatch/internal/extract"
	"invomatch/internal/extract/gemini"
	"invomatch/internal/handler"
	"invomatch/internal/match"
	"invomatch/internal/pipeline"
	"invomatch/internal/render"
	"invomatch/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Pipeline wiring: poppler-backed renderer, Gemini extractor behind a
	// retry wrapper, amount matcher with the configured tolerance.
	renderer := render.NewRenderer(cfg.Render)
	extractor := extract.NewRetryingExtractor(gemini.NewClient(&cfg.Extract), &cfg.Extract)
	matcher := match.NewMatcher(match.WithAmountTolerance(cfg.Match.AmountTolerance))
	pipe := pipeline.New(renderer, extractor, matcher)

	// Initialize handlers
	matchH := handler.NewMatchHandler(pipe, cfg.Server.MaxUploadMB)
	healthH := handler.NewHealthHandler(cfg.Render.Pdftotext, cfg.Render.Pdftoppm)

	// Setup router
	r := router.Setup(cfg, matchH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
