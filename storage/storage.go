package storage

import (
	"context"
	"fmt"

	"github.com/reelhub/reelhub/config"
)

// Storage abstracts the object store that holds raw and processed media.
// Bucket is a logical namespace (e.g. "reels"); path is the object key inside it.
type Storage interface {
	// Download returns the object bytes.
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	// Upload writes the object, overwriting any prior artifact at the same
	// path, and returns the public URL of the stored object.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}

// New builds the storage backend selected by configuration.
func New(cfg config.AppConfig) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocal(cfg.LocalStoragePath, cfg.LocalStorageBaseURL)
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
