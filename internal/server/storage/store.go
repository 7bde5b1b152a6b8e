// Package storage holds the object store contract used by the asset
// service and its S3 and in-memory implementations.
package storage

import (
	"context"
	"time"
)

// ObjectMeta is what Head reports about a stored object.
type ObjectMeta struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ObjectStore is a flat key/value blob store that can hand out read-only
// presigned URLs. Head returns common.ErrorNotFound for a missing key;
// Delete of a missing key is not an error.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Head(ctx context.Context, key string) (*ObjectMeta, error)
	PresignGet(ctx context.Context, key, contentType, contentDisposition string, ttl time.Duration) (string, error)
}
