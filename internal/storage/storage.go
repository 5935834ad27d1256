// Package storage contains the blob store abstraction backing image
// content. Implementations must avoid local disk and rely on streaming
// I/O only.
package storage

import (
	"context"
	"io"
)

// PutObjectOptions define optional parameters for uploads.
// Size should be the exact number of bytes if known; if unknown, set to
// -1 and the implementation will buffer/chunk as supported by the
// backend. ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage is the blob store contract the content services consume:
// upload an object under a caller-chosen key, resolve a stable download
// URL for it, and delete it again when its record goes away.
type Storage interface {
	// Put uploads an object under the given key using the provided
	// reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// DownloadURL returns a URL from which the object can be fetched
	// without credentials. The URL is stable and safe to persist in
	// records that outlive any signing window.
	DownloadURL(ctx context.Context, key string) (string, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
