package analyzer

import (
	"context"
	"errors"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

// Source says which path produced an analysis.
type Source string

const (
	SourceModel      Source = "model"
	SourceBestEffort Source = "best-effort"
	SourceFallback   Source = "fallback"
)

// Outcome describes how an analysis was produced. Model is empty for fallback results.
type Outcome struct {
	Source   Source
	Model    string
	Attempts int
}

func (o Outcome) Fallback() bool {
	return o.Source == SourceFallback
}

// Generator sends a prompt to one generative model and returns its raw text reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer never fails: when no model produces a reply it returns the pattern-based
// fallback analysis instead.
type Analyzer interface {
	Analyze(ctx context.Context, text, language string) (*models.AnalysisResult, Outcome)
}

type modelChain struct {
	generators []Generator
	logger     *utils.Logger
}

// New returns an Analyzer that tries generators in order. An empty list means no
// model is configured and every call goes straight to the fallback.
func New(generators []Generator, logger *utils.Logger) Analyzer {
	return &modelChain{generators: generators, logger: logger}
}

func (a *modelChain) Analyze(ctx context.Context, text, language string) (*models.AnalysisResult, Outcome) {
	if len(a.generators) == 0 {
		a.logger.Info("No generative model configured, using fallback analysis")
		return FallbackAnalysis(text), Outcome{Source: SourceFallback}
	}

	prompt := BuildPrompt(text, language)

	attempts := 0
	for _, g := range a.generators {
		if ctx.Err() != nil {
			break
		}
		attempts++

		a.logger.Info("Trying model", "model", g.Name())
		raw, err := g.Generate(ctx, prompt)
		if err != nil {
			a.logger.Warn("Model failed", "model", g.Name(), "error", err)
			continue
		}

		result, err := ParseResponse(raw)
		if err != nil {
			a.logger.Warn("Model reply was not usable JSON, synthesizing analysis",
				"model", g.Name(),
				"reason", err)
			a.logger.Debug("Raw model reply", "model", g.Name(), "reply", truncate(raw, 500))
			return bestEffortAnalysis(raw), Outcome{Source: SourceBestEffort, Model: g.Name(), Attempts: attempts}
		}

		a.logger.Info("Model analysis succeeded", "model", g.Name())
		return result, Outcome{Source: SourceModel, Model: g.Name(), Attempts: attempts}
	}

	reason := "all models failed"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "processing deadline exceeded"
	}
	a.logger.Warn("Using fallback analysis", "reason", reason, "attempts", attempts)
	return FallbackAnalysis(text), Outcome{Source: SourceFallback, Attempts: attempts}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
