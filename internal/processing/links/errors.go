package links

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrExpired       = errors.New("link expired")
	ErrDuplicate     = errors.New("link already exists")
	ErrInvalidURL    = errors.New("invalid url")
	ErrInvalidAlias  = errors.New("invalid custom alias")
	ErrInvalidExpiry = errors.New("expiresAt must be in the future")
)

// DuplicateError is returned when a create targets a URL or alias that
// already maps to a stored link. Exactly one of Code or Alias is set.
type DuplicateError struct {
	Code  string
	Alias string
}

func (e *DuplicateError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("custom alias %q already exists", e.Alias)
	}
	return fmt.Sprintf("url already shortened with code %q", e.Code)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Conflict fields reported by repositories.
const (
	FieldShortCode   = "short_code"
	FieldCustomAlias = "custom_alias"
)

// ConflictError is the repository-level uniqueness violation raised by Save.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint violated on %s (%q)", e.Field, e.Value)
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage wraps err as a StorageError unless it is nil or already one
// of the domain errors callers switch on.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
