package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestSecureFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^1700000000123_[0-9a-f]{16}_[A-Za-z0-9_\-]+\.pdf$`)

	name := SecureFilename("../../etc/my lease (final).pdf", now)
	if !pattern.MatchString(name) {
		t.Fatalf("unexpected secure filename %q", name)
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Fatalf("secure filename must not contain path elements: %q", name)
	}
	if !strings.Contains(name, "my_lease__final_") {
		t.Errorf("sanitized base missing from %q", name)
	}
}

func TestSecureFilenameTruncatesBase(t *testing.T) {
	name := SecureFilename(strings.Repeat("a", 80)+".docx", time.Now())
	parts := strings.SplitN(name, "_", 3)
	if len(parts) != 3 {
		t.Fatalf("unexpected format %q", name)
	}
	base := strings.TrimSuffix(parts[2], ".docx")
	if len(base) != 50 {
		t.Errorf("base length = %d, want 50", len(base))
	}
}

func TestSecureFilenameUnique(t *testing.T) {
	now := time.Now()
	a := SecureFilename("contract.pdf", now)
	b := SecureFilename("contract.pdf", now)
	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
}

func TestAppErrorHidesCause(t *testing.T) {
	err := NewInternalError("Failed to analyze document").WithCause(errTest("provider exploded"))
	appErr, ok := AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError")
	}
	if appErr.Message != "Failed to analyze document" {
		t.Errorf("message = %q", appErr.Message)
	}
	if appErr.StatusCode != 500 {
		t.Errorf("status = %d", appErr.StatusCode)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
