// Package blobstore abstracts where uploaded model files and index
// snapshots live: local disk, memory, or S3-compatible object storage.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is a flat keyed byte store. Names use forward slashes as
// separators regardless of backend.
type Store interface {
	// Put writes a blob. Existing blobs are replaced; readers never see a
	// partial write.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open opens a blob for reading. The caller closes the returned reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
