package storage

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/devotionsim/proposal-api/internal/domain"
)

// DefaultMaxUploadBytes is the logo size limit when none is configured
const DefaultMaxUploadBytes = 5 * 1024 * 1024

var allowedImageTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".webp": {"image/webp"},
}

// ValidateImage checks extension, sniffed content type and size of a logo upload.
// It returns the content type to store the object with.
func ValidateImage(filename string, head []byte, size, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if size > maxBytes {
		return "", domain.NewValidationError("file", "file exceeds the maximum upload size")
	}
	if size == 0 {
		return "", domain.NewValidationError("file", "file is empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	types, ok := allowedImageTypes[ext]
	if !ok {
		return "", domain.NewValidationError("file", "Invalid file type. Only JPEG, PNG, and WEBP images are allowed.")
	}

	sniffed := http.DetectContentType(head)
	for _, t := range types {
		if sniffed == t {
			return t, nil
		}
	}
	return "", domain.NewValidationError("file", "file content does not match its extension")
}
