package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mathviz/internal/domain"
)

// Publisher copies a rendered artifact to an externally reachable location
// and returns its URL. Implementations report failures with
// domain.ErrPublication; the worker then degrades to a local reference
// instead of failing the job.
type Publisher interface {
	Publish(ctx context.Context, localPath, key, contentType string) (string, error)
}

// FilePublisher persists artifacts under a local directory that the API
// serves statically. It stands in for an object store in development and
// single-node deployments.
type FilePublisher struct {
	basePath string
	baseURL  string
}

// NewFilePublisher initializes a FilePublisher rooted at basePath with URLs
// built from baseURL.
func NewFilePublisher(basePath, baseURL string) (*FilePublisher, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FilePublisher{
		basePath: basePath,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

// BasePath returns the configured root directory.
func (p *FilePublisher) BasePath() string {
	if p == nil {
		return ""
	}
	return p.basePath
}

// Publish copies the file at localPath to the given relative key and returns
// the externally addressable URL. Keys are cleaned to prevent directory
// traversal.
func (p *FilePublisher) Publish(ctx context.Context, localPath, key, contentType string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: no publisher configured", domain.ErrPublication)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPublication, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open artifact: %v", domain.ErrPublication, err)
	}
	defer func() {
		_ = src.Close()
	}()

	fullPath := filepath.Join(p.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: ensure directory: %v", domain.ErrPublication, err)
	}
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: create target: %v", domain.ErrPublication, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("%w: copy artifact: %v", domain.ErrPublication, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("%w: flush target: %v", domain.ErrPublication, err)
	}

	return p.baseURL + "/" + cleanKey, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("invalid key")
	}
	return cleaned, nil
}

var _ Publisher = (*FilePublisher)(nil)
