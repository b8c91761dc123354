package service

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/storage"
)

// sniffLen is how many leading bytes content type detection looks at
const sniffLen = 512

// UploadService validates client logos and puts them in asset storage
type UploadService struct {
	storage  storage.Storage
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadService accepts a nil storage; uploads then fail with ErrStorageUnavailable
func NewUploadService(store storage.Storage, maxBytes int64, logger *zap.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxUploadBytes
	}
	return &UploadService{storage: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the largest accepted upload
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadLogo stores an image of the declared size and returns its public URL
func (s *UploadService) UploadLogo(ctx context.Context, filename string, size int64, data io.Reader) (*domain.UploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	br := bufio.NewReaderSize(data, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType, err := storage.ValidateImage(filename, head, size, s.maxBytes)
	if err != nil {
		return nil, err
	}

	path, written, err := s.storage.Upload(ctx, filename, contentType, io.LimitReader(br, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to store logo: %w", err)
	}

	s.logger.Info("logo uploaded",
		zap.String("path", path),
		zap.String("content_type", contentType),
		zap.Int64("size", written),
	)

	return &domain.UploadResponse{URL: s.storage.URL(path), Size: written}, nil
}
