package media

import (
	"context"
	"io"
	"time"
)

// ObjectInfo is what the gateway needs to know before it writes headers.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the read side of the object storage backend.
type ObjectStore interface {
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// Open returns length bytes starting at offset. A negative length
	// reads to the end of the object.
	Open(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error)
}

// Object points at one stored file. Name is the client-facing filename.
type Object struct {
	Bucket string
	Key    string
	Name   string
}
