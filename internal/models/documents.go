package models

import (
	"time"
)

// UploadedFile is a multipart upload held in memory for the life of one request.
type UploadedFile struct {
	Content     []byte
	ContentType string
	Filename    string
	Size        int64
}

type ExtractionMethod string

const (
	MethodPDFText  ExtractionMethod = "pdf-text"
	MethodPDFOCR   ExtractionMethod = "pdf-ocr"
	MethodDOCX     ExtractionMethod = "docx"
	MethodDOC      ExtractionMethod = "doc"
	MethodImageOCR ExtractionMethod = "image-ocr"
)

// ExtractedText is document text plus the path that produced it.
type ExtractedText struct {
	Text   string
	Method ExtractionMethod
	Pages  int
}

type AnalyzeRequest struct {
	File     *UploadedFile
	Language string
}

type DocumentInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

type AnalyzeResponse struct {
	Success       bool            `json:"success"`
	DocumentInfo  DocumentInfo    `json:"documentInfo"`
	ExtractedText string          `json:"extractedText"`
	Analysis      *AnalysisResult `json:"analysis"`
	ProcessedAt   time.Time       `json:"processedAt"`
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SupportedType struct {
	Type        string   `json:"type"`
	MimeTypes   []string `json:"mimeTypes"`
	Description string   `json:"description"`
}

// AnalysisRecord is the metadata kept for each processed document. It never holds document text.
type AnalysisRecord struct {
	ID               string    `json:"id" db:"id"`
	Filename         string    `json:"filename" db:"filename"`
	FileSize         int64     `json:"fileSize" db:"file_size"`
	ContentType      string    `json:"contentType" db:"content_type"`
	Language         string    `json:"language" db:"language"`
	ExtractionMethod string    `json:"extractionMethod" db:"extraction_method"`
	TextLength       int       `json:"textLength" db:"text_length"`
	DocumentType     string    `json:"documentType" db:"document_type"`
	RiskLevel        string    `json:"riskLevel" db:"risk_level"`
	Model            string    `json:"model,omitempty" db:"model"`
	Fallback         bool      `json:"fallback" db:"fallback"`
	Translated       bool      `json:"translated" db:"translated"`
	StorageKey       string    `json:"storageKey,omitempty" db:"storage_key"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}
