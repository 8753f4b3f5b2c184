package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
)

func TestDetermineContentType(t *testing.T) {
	tests := []struct {
		filename, header, want string
	}{
		{"contract.pdf", "application/pdf", validator.MimePDF},
		{"contract.pdf", "", validator.MimePDF},
		{"contract.PDF", "application/octet-stream", validator.MimePDF},
		{"lease.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml", validator.MimeDOCX},
		{"scan.jpg", "image/jpg", validator.MimeJPEG},
		{"scan.webp", "", validator.MimeWEBP},
		{"contract.pdf", "application/pdf; charset=binary", validator.MimePDF},
		// The declared type wins over the extension.
		{"notes.pdf", "text/plain", "text/plain"},
		{"unknown.bin", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"|"+tt.header, func(t *testing.T) {
			if got := DetermineContentType(tt.filename, tt.header); got != tt.want {
				t.Errorf("DetermineContentType(%q, %q) = %q, want %q", tt.filename, tt.header, got, tt.want)
			}
		})
	}
}

func TestIsTooLarge(t *testing.T) {
	if !isTooLarge(&http.MaxBytesError{Limit: 10}) {
		t.Error("MaxBytesError should be too large")
	}
	if !isTooLarge(fmt.Errorf("multipart: NextPart: %w", errors.New("http: request body too large"))) {
		t.Error("wrapped body-too-large message should be too large")
	}
	if isTooLarge(http.ErrNotMultipart) {
		t.Error("ErrNotMultipart is not a size error")
	}
}
