package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore stores receipt PDFs and vehicle photos
type ObjectStore interface {
	// Upload stores data under objectPath and returns the path
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	// GeneratePresignedURL returns a temporary GET URL for a private object
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
