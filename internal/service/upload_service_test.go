package service_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/service"
	"github.com/devotionsim/proposal-api/internal/storage"
)

func pngBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, "\x89PNG\r\n\x1a\n")
	return b
}

func TestUploadService_UploadLogo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, "https://api.example/uploads")
	require.NoError(t, err)
	svc := service.NewUploadService(local, 1024, zap.NewNop())

	t.Run("stores a png", func(t *testing.T) {
		data := pngBytes(600)
		resp, err := svc.UploadLogo(ctx, "Logo.PNG", int64(len(data)), bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, int64(600), resp.Size)
		require.True(t, strings.HasPrefix(resp.URL, "https://api.example/uploads/logos/"))
		assert.True(t, strings.HasSuffix(resp.URL, ".png"))

		name := strings.TrimPrefix(resp.URL, "https://api.example/uploads/")
		stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, data, stored)
	})

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"wrong extension", "logo.gif", pngBytes(100)},
		{"content does not match", "logo.jpg", pngBytes(100)},
		{"too large", "logo.png", pngBytes(2048)},
		{"empty", "logo.png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadLogo(ctx, tt.filename, int64(len(tt.data)), bytes.NewReader(tt.data))
			assert.True(t, domain.IsValidationError(err), "got %v", err)
		})
	}

	t.Run("no storage configured", func(t *testing.T) {
		svc := service.NewUploadService(nil, 0, zap.NewNop())
		_, err := svc.UploadLogo(ctx, "logo.png", 10, bytes.NewReader(pngBytes(10)))
		assert.ErrorIs(t, err, service.ErrStorageUnavailable)
		assert.Equal(t, int64(storage.DefaultMaxUploadBytes), svc.MaxBytes())
	})
}
