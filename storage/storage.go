package storage

import (
	"context"
	"io"
)

type PutResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStorage хранит архивы результатов турниров.
type ObjectStorage interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (*PutResult, error)

	Delete(ctx context.Context, key string) error

	// PublicURL возвращает публичную ссылку на объект или "", если её нельзя построить.
	PublicURL(key string) string
}
