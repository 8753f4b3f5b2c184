package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
)

// ErrUnavailable means the provider cannot translate anything right now (disabled,
// unauthenticated or out of quota). It aborts a whole translation instead of being
// tolerated per string.
var ErrUnavailable = errors.New("translation service unavailable")

// Provider translates single strings and lists the languages it can target.
type Provider interface {
	Translate(ctx context.Context, text, target string) (string, error)
	Languages(ctx context.Context) ([]models.Language, error)
}

const (
	defaultConcurrency = 8
	catalogTTL         = time.Hour
)

type Service struct {
	provider    Provider
	logger      *utils.Logger
	concurrency int

	mu           sync.Mutex
	catalog      []models.Language
	catalogUntil time.Time
	now          func() time.Time
}

// New builds a Service. A nil provider disables translation: analyses come back
// untranslated and the language list is the fallback list.
func New(provider Provider, logger *utils.Logger) *Service {
	return &Service{
		provider:    provider,
		logger:      logger,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
}

func (s *Service) Enabled() bool {
	return s.provider != nil
}

// TranslateAnalysis returns a translated copy of analysis. For the default language it
// returns analysis itself without calling the provider. A string that fails to
// translate keeps its original text. If the whole operation fails, or every string
// fails, the original analysis is returned together with the error.
func (s *Service) TranslateAnalysis(ctx context.Context, analysis *models.AnalysisResult, target string) (*models.AnalysisResult, error) {
	if target == "" || strings.EqualFold(target, validator.DefaultLanguage) {
		return analysis, nil
	}
	if s.provider == nil {
		return analysis, ErrUnavailable
	}

	out := analysis.Clone()
	fields := translatableFields(out)

	var attempted int32
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, field := range fields {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		attempted++
		g.Go(func() error {
			translated, err := s.provider.Translate(gctx, *field, target)
			if err != nil {
				if errors.Is(err, ErrUnavailable) || gctx.Err() != nil {
					return err
				}
				failed.Add(1)
				s.logger.Debug("String translation failed, keeping original", "language", target, "error", err)
				return nil
			}
			*field = translated
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return analysis, fmt.Errorf("translate analysis to %s: %w", target, err)
	}

	n := failed.Load()
	if attempted > 0 && n == attempted {
		return analysis, fmt.Errorf("translate analysis to %s: all %d strings failed: %w", target, attempted, ErrUnavailable)
	}
	if n > 0 {
		s.logger.Warn("Some strings were left untranslated", "language", target, "failed", n, "total", attempted)
	}
	return out, nil
}

// translatableFields lists every user-facing string. Document type, key term names
// and clause locations stay verbatim.
func translatableFields(a *models.AnalysisResult) []*string {
	fields := []*string{&a.Summary}
	for i := range a.KeyPoints {
		fields = append(fields, &a.KeyPoints[i])
	}
	for i := range a.Recommendations {
		fields = append(fields, &a.Recommendations[i])
	}
	for i := range a.RiskAssessment.Risks {
		fields = append(fields, &a.RiskAssessment.Risks[i])
	}
	for i := range a.RiskAssessment.RedFlags {
		fields = append(fields, &a.RiskAssessment.RedFlags[i])
	}
	for i := range a.KeyTerms {
		fields = append(fields, &a.KeyTerms[i].Explanation)
	}
	for i := range a.ImportantClauses {
		c := &a.ImportantClauses[i]
		fields = append(fields, &c.Clause, &c.Importance, &c.PlainLanguage)
	}
	return fields
}

// SupportedLanguages returns the curated language list, narrowed to what the
// provider reports it can translate into. It serves the fallback list when the
// provider is disabled or its catalog cannot be fetched.
func (s *Service) SupportedLanguages(ctx context.Context) ([]models.Language, error) {
	if s.provider == nil {
		return validator.FallbackLanguages, nil
	}

	catalog, err := s.providerCatalog(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Failed to fetch provider language catalog, serving fallback list", "error", err)
		return validator.FallbackLanguages, nil
	}

	available := make(map[language.Base]bool, len(catalog))
	for _, lang := range catalog {
		if base, ok := baseOf(lang.Code); ok {
			available[base] = true
		}
	}

	filtered := make([]models.Language, 0, len(validator.SupportedLanguages))
	for _, lang := range validator.SupportedLanguages {
		if base, ok := baseOf(lang.Code); ok && available[base] {
			filtered = append(filtered, lang)
		}
	}
	if len(filtered) == 0 {
		return validator.SupportedLanguages, nil
	}
	return filtered, nil
}

func (s *Service) providerCatalog(ctx context.Context) ([]models.Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil && s.now().Before(s.catalogUntil) {
		return s.catalog, nil
	}

	catalog, err := s.provider.Languages(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog = catalog
	s.catalogUntil = s.now().Add(catalogTTL)
	return catalog, nil
}

func baseOf(code string) (language.Base, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Base{}, false
	}
	base, _ := tag.Base()
	return base, true
}
