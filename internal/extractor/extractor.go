package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
	"github.com/dustin/go-humanize"
)

type Kind int

const (
	// KindUnsupported means no extraction strategy exists for the MIME type.
	KindUnsupported Kind = iota + 1
	// KindUnreadable means the file or the OCR service could not produce text.
	KindUnreadable
	// KindNoText means the file was read but holds no readable text.
	KindNoText
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindUnreadable:
		return "unreadable"
	case KindNoText:
		return "no_text"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by Extract. Message is safe to show to a
// client; Err keeps the internal cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	ErrOCRUnavailable = errors.New("ocr service not configured")
	ErrOCRNoText      = errors.New("no text extracted from document")
)

// OCR turns raw document bytes into text using a remote document processor.
type OCR interface {
	Process(ctx context.Context, content []byte, mimeType string) (string, error)
}

type Extractor struct {
	ocr    OCR
	logger *utils.Logger
}

// New builds an Extractor. A nil ocr makes every OCR call fail with ErrOCRUnavailable.
func New(ocr OCR, logger *utils.Logger) *Extractor {
	if ocr == nil {
		ocr = unavailableOCR{}
	}
	return &Extractor{ocr: ocr, logger: logger}
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

func (e *Extractor) Extract(ctx context.Context, file *models.UploadedFile) (*models.ExtractedText, error) {
	switch file.ContentType {
	case validator.MimePDF:
		return e.extractPDF(ctx, file)
	case validator.MimeDOCX, validator.MimeDOC:
		return e.extractWord(file)
	case validator.MimeJPEG, validator.MimePNG, validator.MimeGIF, validator.MimeWEBP:
		return e.extractImage(ctx, file)
	default:
		return nil, newError(KindUnsupported, fmt.Sprintf("Unsupported file type: %s", file.ContentType), nil)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, file *models.UploadedFile) (*models.ExtractedText, error) {
	text, pages, err := ExtractPDF(file.Content)
	if err != nil {
		return nil, newError(KindUnreadable, "Failed to extract text from PDF", err)
	}

	if validator.IsReadableText(text) {
		e.logger.Debug("PDF text layer extracted", "filename", file.Filename, "pages", pages, "text_length", len(text))
		return &models.ExtractedText{Text: text, Method: models.MethodPDFText, Pages: pages}, nil
	}

	e.logger.Info("PDF has no usable text layer, falling back to OCR",
		"filename", file.Filename,
		"pages", pages,
		"size", humanize.Bytes(uint64(file.Size)))

	ocrText, err := e.ocr.Process(ctx, file.Content, validator.MimePDF)
	if err == nil && strings.TrimSpace(ocrText) == "" {
		err = ErrOCRNoText
	}
	if err != nil {
		return nil, newError(KindUnreadable, "Failed to process PDF with OCR. The document may be corrupted or unreadable.", err)
	}

	ocrText = cleanText(ocrText)
	if !validator.IsReadableText(ocrText) {
		return nil, newError(KindNoText, "No readable text found in PDF", nil)
	}
	return &models.ExtractedText{Text: ocrText, Method: models.MethodPDFOCR, Pages: pages}, nil
}

// extractWord never falls back to OCR. Browsers mislabel DOC and DOCX often enough
// that the container signature decides the parser, not the declared type.
func (e *Extractor) extractWord(file *models.UploadedFile) (*models.ExtractedText, error) {
	var (
		text   string
		method models.ExtractionMethod
		err    error
	)

	switch {
	case bytes.HasPrefix(file.Content, zipMagic):
		method = models.MethodDOCX
		text, err = ExtractDOCX(file.Content)
	case bytes.HasPrefix(file.Content, oleMagic):
		method = models.MethodDOC
		text, err = ExtractDOC(file.Content)
	default:
		err = fmt.Errorf("unrecognized Word container for %s", file.ContentType)
	}
	if err != nil {
		return nil, newError(KindUnreadable, "Failed to extract text from Word document", err)
	}

	if !validator.IsReadableText(text) {
		return nil, newError(KindNoText, "No text content found in Word document", nil)
	}
	return &models.ExtractedText{Text: text, Method: method}, nil
}

func (e *Extractor) extractImage(ctx context.Context, file *models.UploadedFile) (*models.ExtractedText, error) {
	text, err := e.ocr.Process(ctx, file.Content, file.ContentType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrOCRNoText
	}
	if err != nil {
		if errors.Is(err, ErrOCRNoText) {
			return nil, newError(KindNoText, "No text found in image", err)
		}
		return nil, newError(KindUnreadable, "Failed to extract text from image using OCR", err)
	}

	text = cleanText(text)
	if !validator.IsReadableText(text) {
		return nil, newError(KindNoText, "No readable text found in image", nil)
	}
	return &models.ExtractedText{Text: text, Method: models.MethodImageOCR, Pages: 1}, nil
}

type unavailableOCR struct{}

func (unavailableOCR) Process(context.Context, []byte, string) (string, error) {
	return "", ErrOCRUnavailable
}
