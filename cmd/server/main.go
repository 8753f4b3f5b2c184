package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/app"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/config"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/router"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer application.Close()

	application.RunBackground(ctx)

	handler := router.NewRouter(application.Service, router.Options{
		AllowedOrigins: cfg.FrontendURL,
		Limiter:        application.Limiter,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: writeTimeout(cfg.ProcessingTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "ocr", cfg.OCREnabled(), "translation", cfg.TranslationEnabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}

// writeTimeout leaves room to send the response after the pipeline deadline. Without a
// deadline there is no write timeout either.
func writeTimeout(processing time.Duration) time.Duration {
	if processing <= 0 {
		return 0
	}
	return processing + 30*time.Second
}
