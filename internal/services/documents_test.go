package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/extractor"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/storage"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
)

type fakeExtractor struct {
	result *models.ExtractedText
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, *models.UploadedFile) (*models.ExtractedText, error) {
	f.calls++
	return f.result, f.err
}

type fakeTranslator struct {
	err     error
	targets []string
}

func (f *fakeTranslator) TranslateAnalysis(_ context.Context, a *models.AnalysisResult, target string) (*models.AnalysisResult, error) {
	f.targets = append(f.targets, target)
	if f.err != nil {
		return a, f.err
	}
	out := a.Clone()
	out.Summary = "[" + target + "] " + a.Summary
	return out, nil
}

func (f *fakeTranslator) SupportedLanguages(context.Context) ([]models.Language, error) {
	return validator.FallbackLanguages, f.err
}

type fakeRepository struct {
	mu      sync.Mutex
	records []models.AnalysisRecord
	err     error
	limit   int
}

func (f *fakeRepository) Create(_ context.Context, r *models.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*models.AnalysisRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, f.err
}

func (f *fakeRepository) List(_ context.Context, limit int) ([]models.AnalysisRecord, error) {
	f.limit = limit
	return f.records, f.err
}

type failingStorage struct{ storage.Storage }

func (failingStorage) Upload(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

const leaseText = "RESIDENTIAL LEASE AGREEMENT. The tenant shall pay rent on the first day of each month."

func pdfRequest(language string) *models.AnalyzeRequest {
	return &models.AnalyzeRequest{
		File: &models.UploadedFile{
			Content:     []byte("%PDF-1.4"),
			ContentType: validator.MimePDF,
			Filename:    "lease.pdf",
			Size:        8,
		},
		Language: language,
	}
}

type testDeps struct {
	extractor  *fakeExtractor
	translator *fakeTranslator
	repo       *fakeRepository
}

func newTestService(t *testing.T, mutate func(*Dependencies)) (DocumentService, *testDeps) {
	t.Helper()
	td := &testDeps{
		extractor:  &fakeExtractor{result: &models.ExtractedText{Text: leaseText, Method: models.MethodPDFText, Pages: 1}},
		translator: &fakeTranslator{},
		repo:       &fakeRepository{},
	}
	deps := Dependencies{
		Extractor:         td.extractor,
		Analyzer:          analyzer.New(nil, utils.NewNopLogger()),
		Translator:        td.translator,
		Repository:        td.repo,
		ProcessingTimeout: time.Minute,
		Logger:            utils.NewNopLogger(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewService(deps), td
}

func statusOf(t *testing.T, err error) (int, string) {
	t.Helper()
	appErr, ok := utils.AsAppError(err)
	if !ok {
		t.Fatalf("error %v is not an AppError", err)
	}
	return appErr.StatusCode, appErr.Message
}

func TestAnalyzeDocumentSuccess(t *testing.T) {
	svc, td := newTestService(t, nil)

	resp, err := svc.AnalyzeDocument(context.Background(), pdfRequest("en"))
	if err != nil {
		t.Fatalf("AnalyzeDocument returned error: %v", err)
	}

	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.DocumentInfo != (models.DocumentInfo{Filename: "lease.pdf", Size: 8, Type: validator.MimePDF, Language: "en"}) {
		t.Errorf("DocumentInfo = %+v", resp.DocumentInfo)
	}
	if resp.ExtractedText != leaseText+"..." {
		t.Errorf("ExtractedText = %q", resp.ExtractedText)
	}
	if resp.Analysis.DocumentType != "Rental/Lease Agreement" {
		t.Errorf("DocumentType = %q", resp.Analysis.DocumentType)
	}
	if len(td.translator.targets) != 0 {
		t.Error("English requests must not be translated")
	}

	if len(td.repo.records) != 1 {
		t.Fatalf("history records = %d, want 1", len(td.repo.records))
	}
	rec := td.repo.records[0]
	if !rec.Fallback || rec.Translated || rec.ExtractionMethod != "pdf-text" || rec.RiskLevel != "MEDIUM" {
		t.Errorf("record = %+v", rec)
	}
}

func TestAnalyzeDocumentTranslates(t *testing.T) {
	svc, td := newTestService(t, nil)

	resp, err := svc.AnalyzeDocument(context.Background(), pdfRequest("ES"))
	if err != nil {
		t.Fatalf("AnalyzeDocument returned error: %v", err)
	}
	if resp.DocumentInfo.Language != "es" {
		t.Errorf("Language = %q, want es", resp.DocumentInfo.Language)
	}
	if !strings.HasPrefix(resp.Analysis.Summary, "[es] ") {
		t.Errorf("Summary = %q", resp.Analysis.Summary)
	}
	if !td.repo.records[0].Translated {
		t.Error("record should be marked translated")
	}
}

func TestAnalyzeDocumentTranslationFailureKeepsOriginal(t *testing.T) {
	svc, td := newTestService(t, nil)
	td.translator.err = errors.New("translation down")

	resp, err := svc.AnalyzeDocument(context.Background(), pdfRequest("fr"))
	if err != nil {
		t.Fatalf("AnalyzeDocument returned error: %v", err)
	}
	if strings.HasPrefix(resp.Analysis.Summary, "[") {
		t.Errorf("Summary should be untranslated, got %q", resp.Analysis.Summary)
	}
	if td.repo.records[0].Translated {
		t.Error("record should not be marked translated")
	}
}

func TestAnalyzeDocumentRejections(t *testing.T) {
	tests := []struct {
		name        string
		req         *models.AnalyzeRequest
		wantMessage string
	}{
		{"no file", &models.AnalyzeRequest{Language: "en"}, MsgNoFile},
		{"bad type", &models.AnalyzeRequest{
			File:     &models.UploadedFile{ContentType: "text/plain", Filename: "a.txt", Size: 3},
			Language: "en",
		}, "Unsupported file type: text/plain. Supported types: PDF, DOCX, DOC, JPEG, PNG, GIF, WEBP"},
		{"too large", &models.AnalyzeRequest{
			File:     &models.UploadedFile{ContentType: validator.MimePDF, Filename: "a.pdf", Size: 60 << 20},
			Language: "en",
		}, "File size exceeds 50MB limit"},
		{"bad language", pdfRequest("klingon"), "Invalid language code format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, td := newTestService(t, nil)
			_, err := svc.AnalyzeDocument(context.Background(), tt.req)
			status, message := statusOf(t, err)
			if status != http.StatusBadRequest || message != tt.wantMessage {
				t.Errorf("got %d %q, want 400 %q", status, message, tt.wantMessage)
			}
			if td.extractor.calls != 0 {
				t.Error("extractor must not run for rejected uploads")
			}
		})
	}
}

func TestAnalyzeDocumentExtractionErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		result      *models.ExtractedText
		wantStatus  int
		wantMessage string
	}{
		{"no text", &extractor.Error{Kind: extractor.KindNoText, Message: "No text"}, nil, http.StatusBadRequest, MsgNoReadableText},
		{"unreadable", &extractor.Error{Kind: extractor.KindUnreadable, Message: "broken"}, nil, http.StatusInternalServerError, MsgExtractionFailed},
		{"plain error", errors.New("boom"), nil, http.StatusInternalServerError, MsgExtractionFailed},
		{"blank text", nil, &models.ExtractedText{Text: "  \n "}, http.StatusBadRequest, MsgNoReadableText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, td := newTestService(t, nil)
			td.extractor.err = tt.err
			td.extractor.result = tt.result

			_, err := svc.AnalyzeDocument(context.Background(), pdfRequest("en"))
			status, message := statusOf(t, err)
			if status != tt.wantStatus || message != tt.wantMessage {
				t.Errorf("got %d %q, want %d %q", status, message, tt.wantStatus, tt.wantMessage)
			}
			if len(td.repo.records) != 0 {
				t.Error("failed requests must not be recorded")
			}
		})
	}
}

func TestAnalyzeDocumentArchive(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc, td := newTestService(t, func(d *Dependencies) { d.Storage = store })

	if _, err := svc.AnalyzeDocument(context.Background(), pdfRequest("en")); err != nil {
		t.Fatalf("AnalyzeDocument returned error: %v", err)
	}

	key := td.repo.records[0].StorageKey
	if !strings.HasPrefix(key, storage.UploadPrefix) || !strings.HasSuffix(key, "_lease.pdf") {
		t.Fatalf("StorageKey = %q", key)
	}
	if data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key))); err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("archived upload = %q, %v", data, err)
	}
}

func TestAnalyzeDocumentSideChannelFailures(t *testing.T) {
	svc, td := newTestService(t, func(d *Dependencies) { d.Storage = failingStorage{} })
	td.repo.err = errors.New("disk full")

	if _, err := svc.AnalyzeDocument(context.Background(), pdfRequest("en")); err != nil {
		t.Fatalf("archive and history failures must not fail the request: %v", err)
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 600)
	if got := Preview(long); len([]rune(got)) != 503 || !strings.HasSuffix(got, "...") {
		t.Errorf("Preview(long) has %d runes", len([]rune(got)))
	}
	if got := Preview("short"); got != "short..." {
		t.Errorf("Preview(short) = %q", got)
	}
}

func TestHistory(t *testing.T) {
	svc, td := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.AnalyzeDocument(ctx, pdfRequest("en")); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct{ in, want int }{{0, 20}, {-3, 20}, {5, 5}, {500, 100}} {
		if _, err := svc.ListAnalyses(ctx, tt.in); err != nil {
			t.Fatal(err)
		}
		if td.repo.limit != tt.want {
			t.Errorf("ListAnalyses(%d) used limit %d, want %d", tt.in, td.repo.limit, tt.want)
		}
	}

	id := td.repo.records[0].ID
	if rec, err := svc.GetAnalysis(ctx, id); err != nil || rec.ID != id {
		t.Errorf("GetAnalysis = %v, %v", rec, err)
	}
	_, err := svc.GetAnalysis(ctx, "missing")
	if status, _ := statusOf(t, err); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}

	disabled, _ := newTestService(t, func(d *Dependencies) { d.Repository = nil })
	_, err = disabled.ListAnalyses(ctx, 10)
	if status, _ := statusOf(t, err); status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
}

func TestSupportedTypes(t *testing.T) {
	svc, _ := newTestService(t, nil)
	types := svc.SupportedTypes()

	var mimes []string
	for _, st := range types {
		mimes = append(mimes, st.MimeTypes...)
	}
	for _, m := range mimes {
		if !validator.IsAllowedMimeType(m) {
			t.Errorf("advertised type %q is not accepted by the validator", m)
		}
	}
	if len(mimes) != 7 {
		t.Errorf("advertised %d MIME types, want 7", len(mimes))
	}
}

type blockingGenerator struct{}

func (blockingGenerator) Name() string { return "slow-model" }

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAnalyzeDocumentProcessingTimeoutFallsBack(t *testing.T) {
	svc, _ := newTestService(t, func(d *Dependencies) {
		d.Analyzer = analyzer.New([]analyzer.Generator{blockingGenerator{}}, utils.NewNopLogger())
		d.ProcessingTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	resp, err := svc.AnalyzeDocument(context.Background(), pdfRequest("en"))
	if err != nil {
		t.Fatalf("AnalyzeDocument returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("processing timeout not applied, took %v", elapsed)
	}
	if resp.Analysis.Note == "" {
		t.Errorf("expected fallback analysis after the deadline")
	}
}
