package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/extractor"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/repository"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/storage"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
)

const (
	previewLength   = 500
	archiveTimeout  = 15 * time.Second
	defaultHistory  = 20
	maxHistoryLimit = 100
)

// Client-facing messages for pipeline failures.
const (
	MsgNoFile           = "No file uploaded"
	MsgExtractionFailed = "Failed to extract text from document. Please ensure the file is valid and readable."
	MsgNoReadableText   = "No readable text found in the document. Please check if the file contains text."
	MsgAnalysisFailed   = "Failed to analyze document. Please try again."
	MsgUnexpected       = "An unexpected error occurred. Please try again."
	MsgLanguagesFailed  = "Failed to fetch supported languages"
	MsgHistoryDisabled  = "Processing history is disabled"
)

type DocumentService interface {
	AnalyzeDocument(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	SupportedLanguages(ctx context.Context) ([]models.Language, error)
	SupportedTypes() []models.SupportedType
	ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, file *models.UploadedFile) (*models.ExtractedText, error)
}

type Translator interface {
	TranslateAnalysis(ctx context.Context, analysis *models.AnalysisResult, target string) (*models.AnalysisResult, error)
	SupportedLanguages(ctx context.Context) ([]models.Language, error)
}

// Dependencies wires the pipeline. Repository and Storage are optional.
type Dependencies struct {
	Extractor         TextExtractor
	Analyzer          analyzer.Analyzer
	Translator        Translator
	Repository        repository.Repository
	Storage           storage.Storage
	ProcessingTimeout time.Duration
	Logger            *utils.Logger
}

type documentService struct {
	extractor  TextExtractor
	analyzer   analyzer.Analyzer
	translator Translator
	repo       repository.Repository
	storage    storage.Storage
	timeout    time.Duration
	logger     *utils.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) DocumentService {
	return &documentService{
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		translator: deps.Translator,
		repo:       deps.Repository,
		storage:    deps.Storage,
		timeout:    deps.ProcessingTimeout,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

func (s *documentService) AnalyzeDocument(ctx context.Context, req *models.AnalyzeRequest) (resp *models.AnalyzeResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Unexpected error in document analysis", "panic", fmt.Sprint(r))
			resp, err = nil, utils.NewInternalError(MsgUnexpected)
		}
	}()

	if req == nil || req.File == nil {
		return nil, utils.NewBadRequestError(MsgNoFile)
	}
	file := req.File

	if result := validator.ValidateUpload(file); !result.Valid {
		return nil, utils.NewBadRequestError(result.Reason)
	}
	language, result := validator.ValidateLanguage(req.Language)
	if !result.Valid {
		return nil, utils.NewBadRequestError(result.Reason)
	}

	log := s.logger.With("filename", file.Filename, "language", language)
	log.Info("Processing document", "stage", "validated", "size", humanize.Bytes(uint64(file.Size)), "content_type", file.ContentType)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	storageKey := s.archive(ctx, file, log)

	extracted, err := s.extractor.Extract(ctx, file)
	if err != nil {
		var extractErr *extractor.Error
		if errors.As(err, &extractErr) && extractErr.Kind == extractor.KindNoText {
			log.Warn("No readable text in document", "stage", "extracted", "error", err)
			return nil, utils.NewBadRequestError(MsgNoReadableText).WithCause(err)
		}
		log.Error("Document extraction failed", "stage", "extracted", "error", err)
		return nil, utils.NewInternalError(MsgExtractionFailed).WithCause(err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, utils.NewBadRequestError(MsgNoReadableText)
	}
	log.Info("Text extracted", "stage", "extracted", "method", extracted.Method, "text_length", len(extracted.Text))

	analysis, outcome := s.analyzer.Analyze(ctx, extracted.Text, language)
	if analysis == nil {
		log.Error("Analyzer returned no result", "stage", "analyzed")
		return nil, utils.NewInternalError(MsgAnalysisFailed)
	}
	log.Info("Document analyzed", "stage", "analyzed", "source", outcome.Source, "model", outcome.Model)

	translated := false
	if language != validator.DefaultLanguage {
		out, err := s.translator.TranslateAnalysis(ctx, analysis, language)
		if err != nil {
			log.Warn("Translation failed, returning untranslated analysis", "stage", "translated", "error", err)
		} else {
			analysis = out
			translated = true
			log.Info("Analysis translated", "stage", "translated")
		}
	}

	processedAt := s.now().UTC()
	resp = &models.AnalyzeResponse{
		Success: true,
		DocumentInfo: models.DocumentInfo{
			Filename: file.Filename,
			Size:     file.Size,
			Type:     file.ContentType,
			Language: language,
		},
		ExtractedText: Preview(extracted.Text),
		Analysis:      analysis,
		ProcessedAt:   processedAt,
	}

	s.record(ctx, &models.AnalysisRecord{
		ID:               utils.GenerateID(),
		Filename:         file.Filename,
		FileSize:         file.Size,
		ContentType:      file.ContentType,
		Language:         language,
		ExtractionMethod: string(extracted.Method),
		TextLength:       len([]rune(extracted.Text)),
		DocumentType:     analysis.DocumentType,
		RiskLevel:        string(analysis.RiskAssessment.Level),
		Model:            outcome.Model,
		Fallback:         outcome.Fallback(),
		Translated:       translated,
		StorageKey:       storageKey,
		CreatedAt:        processedAt,
	}, log)

	log.Info("Document processed", "stage", "responded")
	return resp, nil
}

// Preview returns the first 500 characters of text followed by "...".
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}

// archive stores the upload when an archive is configured. Failures are logged and
// never fail the request.
func (s *documentService) archive(ctx context.Context, file *models.UploadedFile, log *utils.Logger) string {
	if s.storage == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key := storage.UploadKey(file.Filename, s.now())
	if err := s.storage.Upload(ctx, key, file.Content, file.ContentType); err != nil {
		log.Warn("Failed to archive upload", "error", err)
		return ""
	}
	return key
}

func (s *documentService) record(ctx context.Context, rec *models.AnalysisRecord, log *utils.Logger) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("Failed to save processing history", "error", err)
	}
}

func (s *documentService) SupportedLanguages(ctx context.Context) ([]models.Language, error) {
	languages, err := s.translator.SupportedLanguages(ctx)
	if err != nil {
		s.logger.Error("Error fetching languages", "error", err)
		return nil, utils.NewInternalError(MsgLanguagesFailed).WithCause(err)
	}
	return languages, nil
}

var supportedTypes = []models.SupportedType{
	{
		Type:        "PDF",
		MimeTypes:   []string{validator.MimePDF},
		Description: "Portable Document Format files, including scanned documents",
	},
	{
		Type:        "DOCX",
		MimeTypes:   []string{validator.MimeDOCX},
		Description: "Microsoft Word documents (2007 and newer)",
	},
	{
		Type:        "DOC",
		MimeTypes:   []string{validator.MimeDOC},
		Description: "Legacy Microsoft Word documents",
	},
	{
		Type:        "Images",
		MimeTypes:   []string{validator.MimeJPEG, validator.MimePNG, validator.MimeGIF, validator.MimeWEBP},
		Description: "Image files containing text (OCR will be performed)",
	},
}

func (s *documentService) SupportedTypes() []models.SupportedType {
	return supportedTypes
}

// ListAnalyses returns recent processing history. A limit outside 1..100 is clamped,
// with 0 meaning the default of 20.
func (s *documentService) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(MsgHistoryDisabled)
	}

	switch {
	case limit <= 0:
		limit = defaultHistory
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list analyses", "error", err)
		return nil, utils.NewInternalError("Failed to retrieve processing history").WithCause(err)
	}
	return records, nil
}

func (s *documentService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, utils.NewServiceUnavailableError(MsgHistoryDisabled)
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get analysis", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve processing history").WithCause(err)
	}
	if record == nil {
		return nil, utils.NewNotFoundError("Analysis not found")
	}
	return record, nil
}
