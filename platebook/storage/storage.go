package storage

import (
	"context"
	"io"
)

type Store interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error

	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object under the prefix, used to drop all
	// renditions of an image at once.
	DeletePrefix(ctx context.Context, prefix string) error

	PresignedURL(ctx context.Context, key string) (string, error)
}
