package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

const (
	MaxFileSize     = 50 << 20 // 50MB
	DefaultLanguage = "en"

	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeGIF  = "image/gif"
	MimeWEBP = "image/webp"

	MinLetterRatio = 0.3
)

var allowedMimeTypes = []string{MimePDF, MimeDOCX, MimeDOC, MimeJPEG, MimePNG, MimeGIF, MimeWEBP}

var deniedExtensions = []string{".exe", ".bat", ".cmd", ".scr", ".pif", ".vbs", ".js"}

// Result is the outcome of a validation rule chain. Reason is empty when Valid.
type Result struct {
	Valid  bool
	Reason string
}

func valid() Result { return Result{Valid: true} }

func invalid(reason string) Result { return Result{Reason: reason} }

// ValidateFile checks size, MIME type, filename and the extension denylist, in that order.
func ValidateFile(size int64, mimeType, filename string) Result {
	if size > MaxFileSize {
		return invalid("File size exceeds 50MB limit")
	}

	if !IsAllowedMimeType(mimeType) {
		return invalid(fmt.Sprintf("Unsupported file type: %s. Supported types: PDF, DOCX, DOC, JPEG, PNG, GIF, WEBP", mimeType))
	}

	if strings.TrimSpace(filename) == "" {
		return invalid("Invalid filename")
	}

	lower := strings.ToLower(filename)
	for _, ext := range deniedExtensions {
		if strings.HasSuffix(lower, ext) {
			return invalid("File type not allowed for security reasons")
		}
	}

	return valid()
}

// ValidateUpload is ValidateFile applied to an upload; a nil upload is invalid.
func ValidateUpload(file *models.UploadedFile) Result {
	if file == nil {
		return invalid("No file provided")
	}
	return ValidateFile(file.Size, file.ContentType, file.Filename)
}

func IsAllowedMimeType(mimeType string) bool {
	for _, allowed := range allowedMimeTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// ValidateLanguage checks a language code against the supported list and returns the
// canonical code (e.g. "ZH-tw" -> "zh-TW").
func ValidateLanguage(code string) (string, Result) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", invalid("Language code is required")
	}
	if len(code) < 2 || len(code) > 5 {
		return "", invalid("Invalid language code format")
	}

	canonical, ok := LookupLanguage(code)
	if !ok {
		return "", invalid(fmt.Sprintf("Unsupported language code: %s", strings.ToLower(code)))
	}
	return canonical.Code, valid()
}

// LetterRatio is the share of letters among the non-space runes of text.
func LetterRatio(text string) float64 {
	var letters, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// IsReadableText reports whether text looks like real document text: non-blank and
// mostly letters rather than symbols or digits.
func IsReadableText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return LetterRatio(text) >= MinLetterRatio
}
