// Package storage abstracts the blob store holding encoded images.
// Production uses S3 (or any S3-compatible endpoint); development and tests
// use the local disk store.
package storage

import (
	"context"
	"fmt"

	"ogserve/config"
)

// BlobStore is the narrow interface the image cache writes through.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Default is the process-wide blob store, set by Init.
var Default BlobStore

// Init selects the backend from config.
func Init(ctx context.Context, cfg *config.Config) error {
	switch cfg.StorageBackend {
	case "s3":
		store, err := NewS3Store(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return err
		}
		Default = store
	case "disk":
		store, err := NewDiskStore(cfg.StorageDir)
		if err != nil {
			return err
		}
		Default = store
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return nil
}
