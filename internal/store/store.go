package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// StorageError wraps a failure of the backing database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Event is an admin-published announcement. MediaRef is empty when the
// event has no photo.
type Event struct {
	ID        int64
	ShortText string
	LongText  string
	MediaRef  string
	CreatedAt time.Time
}

// User is a member that interacted with the bot at least once.
type User struct {
	ID       int64
	Handle   string
	JoinedAt time.Time
}
