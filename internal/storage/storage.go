// Package storage stores uploaded images and published site artifacts. Two
// drivers exist: S3-compatible object storage for production and a local
// disk tree for development, selected by config.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/pagecraft/pagecraft/internal/shared/config"
)

// Store is the object storage surface the services use.
type Store interface {
	Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	// URL returns the public URL an object is served from.
	URL(key string) string
	// Ping verifies the backing store is reachable, for health checks.
	Ping(ctx context.Context) error
}

// New creates the store selected by cfg.Driver.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(cfg)
	case "disk":
		return NewDisk(cfg.DiskRoot, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
