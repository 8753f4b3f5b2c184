package translator

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
)

type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	failOn    map[string]error
	failAll   error
	languages []models.Language
	langErr   error
	langCalls int
}

func (f *fakeProvider) Translate(_ context.Context, text, target string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failAll != nil {
		return "", f.failAll
	}
	if err, ok := f.failOn[text]; ok {
		return "", err
	}
	return "[" + target + "] " + text, nil
}

func (f *fakeProvider) Languages(context.Context) ([]models.Language, error) {
	f.langCalls++
	return f.languages, f.langErr
}

func sampleAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		DocumentType:    "Lease",
		Summary:         "A lease.",
		KeyPoints:       []string{"Rent is due monthly", "Deposit required"},
		Recommendations: []string{"Read it"},
		RiskAssessment: models.RiskAssessment{
			Level:    models.RiskLow,
			Risks:    []string{"Late fees"},
			RedFlags: []string{},
		},
		KeyTerms: []models.KeyTerm{{Term: "Deposit", Explanation: "Money held"}},
		ImportantClauses: []models.ImportantClause{
			{Clause: "Renewal", Location: "Section 9", Importance: "Binding", PlainLanguage: "Renews itself"},
		},
	}
}

func TestTranslateAnalysisDefaultLanguageIsIdentity(t *testing.T) {
	provider := &fakeProvider{}
	svc := New(provider, utils.NewNopLogger())
	in := sampleAnalysis()

	for _, lang := range []string{"en", "EN", ""} {
		out, err := svc.TranslateAnalysis(context.Background(), in, lang)
		if err != nil {
			t.Fatalf("TranslateAnalysis(%q) returned error: %v", lang, err)
		}
		if out != in {
			t.Errorf("TranslateAnalysis(%q) should return the same object", lang)
		}
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for the default language", provider.calls)
	}
}

func TestTranslateAnalysisFields(t *testing.T) {
	provider := &fakeProvider{}
	svc := New(provider, utils.NewNopLogger())
	in := sampleAnalysis()

	out, err := svc.TranslateAnalysis(context.Background(), in, "es")
	if err != nil {
		t.Fatalf("TranslateAnalysis returned error: %v", err)
	}

	if out == in {
		t.Fatal("expected a new object")
	}
	if out.Summary != "[es] A lease." || out.KeyPoints[1] != "[es] Deposit required" {
		t.Errorf("summary/key points not translated: %+v", out)
	}
	if out.RiskAssessment.Risks[0] != "[es] Late fees" || out.Recommendations[0] != "[es] Read it" {
		t.Errorf("risks/recommendations not translated: %+v", out)
	}
	if out.KeyTerms[0].Term != "Deposit" || out.KeyTerms[0].Explanation != "[es] Money held" {
		t.Errorf("KeyTerms = %+v", out.KeyTerms)
	}
	clause := out.ImportantClauses[0]
	if clause.Location != "Section 9" || clause.Clause != "[es] Renewal" || clause.PlainLanguage != "[es] Renews itself" {
		t.Errorf("ImportantClauses = %+v", out.ImportantClauses)
	}
	if out.DocumentType != "Lease" || out.RiskAssessment.Level != models.RiskLow {
		t.Errorf("document type and risk level must be kept: %+v", out)
	}
	if in.Summary != "A lease." || in.KeyTerms[0].Explanation != "Money held" {
		t.Error("input analysis was modified")
	}
	if provider.calls != 9 {
		t.Errorf("provider calls = %d, want 9", provider.calls)
	}
}

func TestTranslateAnalysisKeepsFailedStrings(t *testing.T) {
	provider := &fakeProvider{failOn: map[string]error{"Late fees": errors.New("bad segment")}}
	svc := New(provider, utils.NewNopLogger())

	out, err := svc.TranslateAnalysis(context.Background(), sampleAnalysis(), "fr")
	if err != nil {
		t.Fatalf("TranslateAnalysis returned error: %v", err)
	}
	if out.RiskAssessment.Risks[0] != "Late fees" {
		t.Errorf("failed string should keep original text, got %q", out.RiskAssessment.Risks[0])
	}
	if !strings.HasPrefix(out.Summary, "[fr]") {
		t.Errorf("other strings should still be translated, got %q", out.Summary)
	}
}

func TestTranslateAnalysisUnavailableReturnsOriginal(t *testing.T) {
	in := sampleAnalysis()

	provider := &fakeProvider{failOn: map[string]error{"A lease.": ErrUnavailable}}
	out, err := New(provider, utils.NewNopLogger()).TranslateAnalysis(context.Background(), in, "de")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if out != in {
		t.Error("original analysis should be returned on failure")
	}

	out, err = New(nil, utils.NewNopLogger()).TranslateAnalysis(context.Background(), in, "de")
	if !errors.Is(err, ErrUnavailable) || out != in {
		t.Errorf("disabled service: out=%p in=%p err=%v", out, in, err)
	}
}

func TestTranslateAnalysisAllStringsFailed(t *testing.T) {
	in := sampleAnalysis()
	provider := &fakeProvider{failAll: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}

	out, err := New(provider, utils.NewNopLogger()).TranslateAnalysis(context.Background(), in, "es")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if out != in {
		t.Error("original analysis should be returned when nothing was translated")
	}
	if provider.calls != 9 {
		t.Errorf("provider calls = %d, want 9", provider.calls)
	}
}

func TestSupportedLanguages(t *testing.T) {
	provider := &fakeProvider{languages: []models.Language{
		{Code: "en", Name: "English"},
		{Code: "es", Name: "Spanish"},
		{Code: "zh-CN", Name: "Chinese"},
	}}
	svc := New(provider, utils.NewNopLogger())

	langs, err := svc.SupportedLanguages(context.Background())
	if err != nil {
		t.Fatalf("SupportedLanguages returned error: %v", err)
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Code)
	}
	if got := strings.Join(codes, ","); got != "en,es,zh,zh-TW" {
		t.Errorf("codes = %s", got)
	}

	if _, err := svc.SupportedLanguages(context.Background()); err != nil {
		t.Fatal(err)
	}
	if provider.langCalls != 1 {
		t.Errorf("catalog fetched %d times, want 1 (cached)", provider.langCalls)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * catalogTTL) }
	if _, err := svc.SupportedLanguages(context.Background()); err != nil {
		t.Fatal(err)
	}
	if provider.langCalls != 2 {
		t.Errorf("catalog fetched %d times after expiry, want 2", provider.langCalls)
	}
}

func TestSupportedLanguagesFallback(t *testing.T) {
	svc := New(&fakeProvider{langErr: errors.New("forbidden")}, utils.NewNopLogger())
	langs, err := svc.SupportedLanguages(context.Background())
	if err != nil {
		t.Fatalf("SupportedLanguages returned error: %v", err)
	}
	if len(langs) != len(validator.FallbackLanguages) {
		t.Errorf("got %d languages, want fallback list of %d", len(langs), len(validator.FallbackLanguages))
	}

	langs, _ = New(nil, utils.NewNopLogger()).SupportedLanguages(context.Background())
	if len(langs) != len(validator.FallbackLanguages) {
		t.Errorf("disabled service should serve the fallback list")
	}

	svc = New(&fakeProvider{languages: []models.Language{{Code: "xx-unknown-tag-value", Name: "?"}}}, utils.NewNopLogger())
	langs, _ = svc.SupportedLanguages(context.Background())
	if len(langs) != len(validator.SupportedLanguages) {
		t.Errorf("an empty intersection should serve the curated list, got %d", len(langs))
	}
}
