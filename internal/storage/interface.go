package storage

import (
	"context"
	"io"
)

// ObjectStorage is the archive sink for finished bulk imports.
type ObjectStorage interface {
	// Upload writes an object under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Exists checks whether an object is already stored under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL an operator can retrieve the object from.
	GetURL(key string) string
}
