package store

import (
	"errors"
	"strconv"

	"github.com/dotcommander/doccache/internal/models"
)

// RecoverableError is an alias for models.RecoverableError so callers holding
// only a store import can inspect structured errors.
type RecoverableError = models.RecoverableError

// ErrUnsupportedOperation matches any *UnsupportedOperationError via errors.Is.
var ErrUnsupportedOperation = errors.New("operation not supported by this store")

// UnsupportedOperationError is returned by Increment and Decrement.
type UnsupportedOperationError struct {
	Operation string
	Key       string
	Delta     int64
}

func (e *UnsupportedOperationError) Error() string {
	return e.Operation + " operations are not supported by this store"
}
func (e *UnsupportedOperationError) ErrorCode() string { return "UNSUPPORTED_OPERATION" }
func (e *UnsupportedOperationError) Context() map[string]string {
	return map[string]string{
		"operation": e.Operation,
		"key":       e.Key,
		"delta":     strconv.FormatInt(e.Delta, 10),
	}
}
func (e *UnsupportedOperationError) SuggestedAction() string {
	return "get the value, compute the new value, and put it back"
}
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}
