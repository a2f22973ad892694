package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects on the filesystem under basePath/bucket/ and serves
// them from baseURL. Suitable for development and single-node deployments.
type Local struct {
	basePath string
	baseURL  string
}

// NewLocal creates a filesystem-backed storage rooted at basePath.
func NewLocal(basePath, baseURL string) (*Local, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local storage path is empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}
	return &Local{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (l *Local) objectPath(bucket, path string) (string, error) {
	full := filepath.Join(l.basePath, bucket, filepath.FromSlash(path))
	// Keep object keys inside the storage root
	root := filepath.Clean(l.basePath) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(l.basePath)) || full == root {
		return "", fmt.Errorf("object path %q escapes storage root", path)
	}
	return full, nil
}

// Download returns the object bytes.
func (l *Local) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.objectPath(bucket, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, path, err)
	}
	return b, nil
}

// Upload writes the object and returns its public URL. Existing objects are overwritten.
func (l *Local) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := l.objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write object %s/%s: %w", bucket, path, err)
	}
	return l.baseURL + "/" + bucket + "/" + path, nil
}
