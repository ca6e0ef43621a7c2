package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyItem is returned when a checklist item or link is blank
	ErrEmptyItem = errors.New("item cannot be empty")
	// ErrNoUploader is returned by image operations when no uploader is configured
	ErrNoUploader = errors.New("no image uploader configured")
)

// Op names the repository call that failed
type Op string

const (
	OpList    Op = "list"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpMove    Op = "move"
	OpArchive Op = "archive"
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
)

// ValidationError is returned before any repository call when an intent is
// rejected. The board is left untouched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when the repository rejected a write. The
// in-memory change has already been applied and is kept; the card is
// reported by Unsynced until a later write for it succeeds or the board is
// reloaded.
type PersistenceError struct {
	Op     Op
	CardID string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.CardID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s card %s failed: %v", e.Op, e.CardID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
