// Package businessflow contains the core business logic for tariff
// reconciliation and the current-rates read side.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Snapshot errors
	ErrSnapshotNil         = errors.New("snapshot is nil")
	ErrHorizonDateMissing  = errors.New("snapshot horizon date is missing")
	ErrSnapshotEmpty       = errors.New("snapshot contains no warehouses")
	ErrWarehouseNameEmpty  = errors.New("warehouse name is empty")
	ErrGeoNameEmpty        = errors.New("geo name is empty")
	ErrHorizonBeforeNow    = errors.New("snapshot horizon date is before the batch instant")
	ErrWarehouseUnresolved = errors.New("warehouse could not be resolved")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// IsSnapshotInvalid reports whether err stems from a malformed snapshot.
func IsSnapshotInvalid(err error) bool {
	return errors.Is(err, ErrSnapshotNil) ||
		errors.Is(err, ErrHorizonDateMissing) ||
		errors.Is(err, ErrHorizonBeforeNow) ||
		errors.Is(err, ErrSnapshotEmpty) ||
		errors.Is(err, ErrWarehouseNameEmpty) ||
		errors.Is(err, ErrGeoNameEmpty)
}
