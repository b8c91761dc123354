package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
)

// Storage stores uploaded client assets and hands back a durable public URL
type Storage interface {
	Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error)
	URL(storagePath string) string
}

// NewStorage creates the storage backend named by cfg.Mode
func NewStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local", "":
		return NewLocalStorage(cfg.LocalBasePath, cfg.LocalPublicURL)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(ctx, cfg.CloudConnectionString, cfg.CloudContainer, logger)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("bucket required for s3 storage")
		}
		return NewS3Storage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// objectName returns a unique name that keeps the original extension
func objectName(filename string) string {
	return "logos/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

// LocalStorage writes files under a directory served by the API itself
type LocalStorage struct {
	basePath  string
	publicURL string
}

func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &LocalStorage{basePath: basePath, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// BasePath is the directory served under the public URL
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Upload writes the file to disk and returns its slash-separated path
func (s *LocalStorage) Upload(_ context.Context, filename string, _ string, data io.Reader) (string, int64, error) {
	storagePath := objectName(filename)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(storagePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return storagePath, size, nil
}

func (s *LocalStorage) URL(storagePath string) string {
	return s.publicURL + "/" + storagePath
}
