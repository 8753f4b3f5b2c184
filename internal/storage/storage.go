package storage

import (
	"context"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

// UploadPrefix is the key prefix every archived upload is stored under.
const UploadPrefix = "uploads/"

// Storage keeps validated uploads for a limited time.
type Storage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Sweep deletes uploads last modified before cutoff and reports how many it removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// UploadKey builds the archive key for an uploaded file name.
func UploadKey(originalName string, now time.Time) string {
	return UploadPrefix + utils.SecureFilename(originalName, now)
}

// RunSweeper removes uploads older than ttl every interval until ctx is done.
func RunSweeper(ctx context.Context, s Storage, ttl, interval time.Duration, logger *utils.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.Sweep(ctx, now.Add(-ttl))
			if err != nil {
				logger.Error("Failed to sweep archived uploads", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("Removed expired uploads", "count", removed)
			}
		}
	}
}
