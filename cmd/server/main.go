package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pmb-docgen/internal/config"
	"pmb-docgen/internal/convert"
	"pmb-docgen/internal/docx"
	"pmb-docgen/internal/handlers"
	"pmb-docgen/internal/ledger"
	"pmb-docgen/internal/pipeline"
	"pmb-docgen/internal/placeholders"
	"pmb-docgen/internal/queue"
	"pmb-docgen/internal/templates"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tempRoot := filepath.Join(cfg.Templates.TempDir, "mortgage-docgen")
	if err := os.MkdirAll(tempRoot, 0o755); err != nil {
		logger.Error("temp root unavailable", "path", tempRoot, "error", err)
		os.Exit(1)
	}

	creds, err := convert.LoadCredentials(cfg.Conversion.CredentialsFile)
	if err != nil {
		logger.Warn("conversion credentials unreadable, starting unconfigured", "error", err)
	}
	remote := convert.NewClient(cfg.Conversion.BaseURL, creds.PublicKey, logger)

	fallback, err := convert.NewGotenberg(cfg.Gotenberg.URL, cfg.Gotenberg.ParsedTimeout())
	if err != nil {
		logger.Warn("local converter unavailable", "error", err)
		fallback = nil
	}
	converter := convert.NewService(remote, fallback, logger)

	resolver := templates.NewResolver(cfg.Templates.Dir)
	engine := docx.NewEngine(placeholders.Vocabulary, logger)
	ledgers := ledger.New(cfg.Templates.DataDir, logger)
	governor := queue.NewGovernor(cfg.Queue.Ceiling)
	pipe := pipeline.New(resolver, engine, converter, tempRoot, logger)

	h := handlers.New(pipe, governor, ledgers, resolver, converter,
		cfg.Conversion.CredentialsFile, tempRoot, logger)

	cleanupService := handlers.NewFileCleanupService(tempRoot, 24*time.Hour, logger)
	cleanupService.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutting down server")
		cleanupService.Stop()
		os.Exit(0)
	}()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	api := r.Group("/api")
	{
		api.POST("/generate-documents", h.GenerateDocuments)
		api.POST("/generate-documents-with-custom-order", h.GenerateDocumentsWithCustomOrder)
		api.POST("/split-pdf", h.SplitPDF)

		api.GET("/current-policy-number", h.CurrentPolicyNumber)
		api.POST("/reset-policy-number/:newNumber", h.ResetPolicyNumber)

		api.GET("/health", h.Health)
		api.GET("/status", h.Status)

		api.GET("/conversion/config", h.GetConversionConfig)
		api.POST("/conversion/config", h.SetConversionConfig)
		api.GET("/conversion/credits", h.ConversionCredits)
	}

	logger.Info("starting server", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
