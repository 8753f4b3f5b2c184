package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/config"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/db"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/extractor"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/ratelimit"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/repository"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/services"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/storage"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/translator"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

const sweepInterval = 5 * time.Minute

// Options switch off the optional side channels. The CLI runs without history or archive.
type Options struct {
	DisableHistory   bool
	DisableArchive   bool
	DisableRateLimit bool
}

// App holds the wired pipeline and everything that has to be closed on shutdown.
type App struct {
	Service services.DocumentService
	Limiter ratelimit.Limiter

	storage storage.Storage
	cfg     *config.Config
	logger  *utils.Logger
	closers []func() error
}

// Build wires the pipeline from configuration. Missing credentials for an external
// service degrade that stage instead of failing startup.
func Build(ctx context.Context, cfg *config.Config, logger *utils.Logger, opts Options) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	var ocr extractor.OCR
	if cfg.OCREnabled() {
		documentAI, err := extractor.NewDocumentAI(ctx, cfg.GoogleCloudProjectID, cfg.DocumentAILocation, cfg.DocumentAIProcessorID, logger)
		if err != nil {
			logger.Warn("Document AI unavailable, OCR disabled", "error", err)
		} else {
			ocr = documentAI
			a.closers = append(a.closers, documentAI.Close)
		}
	} else {
		logger.Info("Document AI not configured, OCR disabled")
	}

	geminiClient, err := analyzer.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn("Gemini client unavailable, fallback analysis only", "error", err)
	}
	var generators []analyzer.Generator
	if geminiClient != nil {
		generators = analyzer.NewGeminiGenerators(geminiClient, cfg.GeminiModels)
	} else {
		logger.Info("GEMINI_API_KEY not set, fallback analysis only")
	}

	var provider translator.Provider
	if cfg.TranslationEnabled {
		google, err := translator.NewGoogle(ctx, cfg.TranslateAPIKey)
		if err != nil {
			logger.Warn("Translation client unavailable, translation disabled", "error", err)
		} else {
			provider = google
			a.closers = append(a.closers, google.Close)
		}
	}

	deps := services.Dependencies{
		Extractor:         extractor.New(ocr, logger),
		Analyzer:          analyzer.New(generators, logger),
		Translator:        translator.New(provider, logger),
		ProcessingTimeout: cfg.ProcessingTimeout,
		Logger:            logger,
	}

	if !opts.DisableHistory && cfg.DatabasePath != "" {
		database, err := db.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open history database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		deps.Repository = repository.NewRepository(database)
	}

	if !opts.DisableArchive {
		archive, err := newArchive(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open upload archive: %w", err)
		}
		a.storage = archive
		deps.Storage = archive
	}

	if !opts.DisableRateLimit {
		limiter, err := a.newLimiter(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Limiter = limiter
	}

	a.Service = services.NewService(deps)
	return a, nil
}

func newArchive(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveLocal:
		return storage.NewLocalStorage(cfg.ArchiveDir)
	case config.ArchiveS3:
		return storage.NewS3Storage(ctx, storage.S3Options{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			UseSSL:          cfg.S3UseSSL,
		})
	default:
		return nil, nil
	}
}

// newLimiter shares counters through Redis when REDIS_ADDR is set and keeps them
// in process otherwise.
func (a *App) newLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	cfg := a.cfg
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow), nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect rate limit store: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("Using Redis rate limiter", "addr", cfg.RedisAddr)
	return ratelimit.NewRedis(client, cfg.RateLimitMax, cfg.RateLimitWindow), nil
}

// RunBackground starts the archive sweeper, if an archive is configured, until ctx ends.
func (a *App) RunBackground(ctx context.Context) {
	if a.storage == nil || a.cfg.ArchiveTTL <= 0 {
		return
	}
	go storage.RunSweeper(ctx, a.storage, a.cfg.ArchiveTTL, sweepInterval, a.logger)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
