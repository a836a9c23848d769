package chatstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no persisted session exists for a chat_id
var ErrNotFound = errors.New("chat not found")

// MalformedDataError represents a persisted chat that cannot be parsed
type MalformedDataError struct {
	Path string // file path or "sqlite:<chat_id>"
	Err  error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed chat data %s: %v", e.Path, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// StorageError represents errors reading or writing the backing store
type StorageError struct {
	Path string
	Op   string // "read", "write", "rename", "delete", "query"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SkippedFile records an entry left out of a listing or migration pass
type SkippedFile struct {
	Path   string
	Reason string
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
