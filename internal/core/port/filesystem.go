package port

import (
	"context"
	"io"
)

// Entry is one listing result of a filesystem walk.
type Entry struct {
	Path  string
	IsDir bool
}

// Filesystem is the storage boundary of a single tier (source or
// cache). Implementations must treat Write as idempotent: writing to a
// path that already exists replaces the content and is not an error,
// so concurrent duplicate derivations stay harmless.
type Filesystem interface {
	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// ReadStream opens the file at path for reading.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)
	// Write stores data at path, creating parent directories as needed.
	Write(ctx context.Context, path string, data []byte) error
	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error
	// ListContents lists the entries under path, recursing when deep is set.
	ListContents(ctx context.Context, path string, deep bool) ([]Entry, error)
}
