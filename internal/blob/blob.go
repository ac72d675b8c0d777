// Package blob stores document bytes. Backends are local disk, S3-compatible
// object storage, Google Cloud Storage and Azure Blob Storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"docvault/internal/config"
)

var (
	ErrNotFound = errors.New("blob not found")

	// ErrSignedURLUnsupported is returned by backends that cannot hand out
	// time-limited URLs; callers stream the bytes instead.
	ErrSignedURLUnsupported = errors.New("signed urls not supported by this backend")
)

// Store is the blob collaborator. Keys are opaque locators chosen by the caller.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir)
	case "s3":
		return NewS3Store(cfg), nil
	case "gcs":
		return NewGCSStore(ctx, cfg)
	case "azure":
		return NewAzureStore(cfg)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
