package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object-storage surface the services use for tournament
// posters.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
