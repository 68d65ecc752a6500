package storage

import (
	"context"
	"fmt"

	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/erp/messaging/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// NewObjectStorage builds the configured backend. For s3 the bucket is
// created when missing.
func NewObjectStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (mailapp.ObjectStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", BackendMemory:
		logger.Warn("Using in-memory attachment storage; content is lost on restart")
		return NewMemoryObjectStorage(""), nil
	case BackendS3:
		s, err := NewS3ObjectStorage(&cfg, WithLogger(logger.Named("s3")))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Attachment storage ready", zap.String("bucket", s.Bucket()))
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
