package shapeseek

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when an operation is attempted before
	// Initialize has completed.
	ErrNotReady = errors.New("shapeseek: manager not initialized")

	// ErrClosed is returned when an operation is attempted after Close.
	ErrClosed = errors.New("shapeseek: manager is closed")

	// ErrNoSnapshotPath is returned when Flush is called without a
	// configured snapshot path.
	ErrNoSnapshotPath = errors.New("shapeseek: snapshot path not configured")
)

// ErrDuplicateID is returned when a model id has already been ingested.
type ErrDuplicateID struct {
	ID int64
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("shapeseek: duplicate model id %d", e.ID)
}

// ErrUnsupportedFormat is returned for mesh formats the loader does not
// understand.
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("shapeseek: unsupported mesh format %q", e.Format)
}
