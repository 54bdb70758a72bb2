// Package storage keeps uploaded images behind a small blob interface so the
// local disk and S3-compatible buckets are interchangeable.
package storage

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hoodlink/server/config"
)

// Key prefixes for the two kinds of uploads.
const (
	PostImagesPrefix      = "posts/"
	ProfilePicturesPrefix = "profile_pictures/"
)

// Object is a stored blob as reported by List.
type Object struct {
	Key     string
	ModTime time.Time
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given key
	Save(key string, file io.Reader) error

	// Delete removes the file at key. Deleting a missing key is not an error.
	Delete(key string) error

	// URL returns the public URL for accessing the file
	URL(key string) string

	// List returns every object whose key starts with prefix
	List(prefix string) ([]Object, error)
}

// New builds the storage backend selected by StorageDriver.
func New(c config.AppConfig) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(c.StorageDriver)) {
	case "", "local":
		return NewLocalStorage(c.UploadDir, c.UploadURLPrefix)
	case "s3":
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
