package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

func GenerateID() string {
	return uuid.NewString()
}

// SecureFilename derives a collision-resistant storage name from an upload's original
// name: <unix-ms>_<16 hex>_<sanitized base, max 50 chars><ext>.
func SecureFilename(originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)

	base = unsafeNameChars.ReplaceAllString(base, "_")
	if len(base) > 50 {
		base = base[:50]
	}
	ext = unsafeNameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext != "" {
		ext = "." + ext
	}

	random := make([]byte, 8)
	rand.Read(random)

	return fmt.Sprintf("%d_%s_%s%s", now.UnixMilli(), hex.EncodeToString(random), base, ext)
}
