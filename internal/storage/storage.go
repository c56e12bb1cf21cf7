// Package storage defines the object store the upload handler writes to.
// Swap implementations by changing the concrete type injected at startup:
// the MinIO implementation works with any S3-compatible provider, the S3
// implementation uses the AWS SDK, and the filesystem and memory stores are
// meant for local development and tests.
package storage

import (
	"context"
	"io"
)

// Store writes named binary objects.
//
// Implementations must be safe for concurrent use. Put is called once per
// object; objects are never overwritten or deleted by this service.
type Store interface {
	// Put streams size bytes from reader to the store under key, tagging the
	// object with contentType.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Object is a stored object as held by the in-memory store.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
}
