package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps a single uploaded image.
const MaxImageSize = 5 << 20

var (
	allowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	allowedImageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}

	// ErrInvalidImage is returned for anything that is not an accepted image upload.
	ErrInvalidImage = errors.New("invalid image")
)

// ValidateImage checks size, extension and the sniffed content type of an upload.
// It returns the canonical extension to store the file under.
func ValidateImage(header *multipart.FileHeader) (string, error) {
	if header == nil {
		return "", fmt.Errorf("%w: missing file", ErrInvalidImage)
	}
	if header.Size > MaxImageSize {
		return "", fmt.Errorf("%w: file too large, maximum size is %d MB", ErrInvalidImage, MaxImageSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q not allowed", ErrInvalidImage, ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	detected := http.DetectContentType(buffer[:n])
	canonical, ok := allowedImageTypes[detected]
	if !ok {
		return "", fmt.Errorf("%w: detected type %s", ErrInvalidImage, detected)
	}
	return canonical, nil
}

// NewKey builds a collision-free key under prefix.
func NewKey(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}

// SaveImage validates an upload and writes it under prefix. It returns the
// storage key and the public URL.
func SaveImage(s Storage, prefix string, header *multipart.FileHeader) (string, string, error) {
	ext, err := ValidateImage(header)
	if err != nil {
		return "", "", err
	}
	file, err := header.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	key := NewKey(prefix, ext)
	if err := s.Save(key, file); err != nil {
		return "", "", err
	}
	return key, s.URL(key), nil
}
