package mail

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by ObjectStorage when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage holds attachment content. It is implemented by the
// infrastructure layer (S3-compatible buckets, in-memory).
type ObjectStorage interface {
	// Upload writes the content under storageKey, replacing any previous content
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// Download reads the content; ErrObjectNotFound when the key is missing
	Download(ctx context.Context, storageKey string) ([]byte, error)

	// GenerateDownloadURL returns a URL the content can be fetched from and
	// its expiration time
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
