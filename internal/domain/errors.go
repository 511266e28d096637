package domain

import (
	"errors"
	"fmt"
)

// RowError identifies one offending row in a bulk upload.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ValidationError reports malformed input. For bulk uploads it accumulates
// every offending row; the batch is rejected as a whole, nothing is applied.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	switch len(e.Rows) {
	case 0:
		return "invalid input"
	case 1:
		return "invalid input: " + e.Rows[0].String()
	default:
		return fmt.Sprintf("invalid input: %s (and %d more)", e.Rows[0].String(), len(e.Rows)-1)
	}
}

func (e *ValidationError) Add(row int, field, message string) {
	e.Rows = append(e.Rows, RowError{Row: row, Field: field, Message: message})
}

// OrNil returns the error when any row was rejected, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Rows) == 0 {
		return nil
	}
	return e
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Rows: []RowError{{Field: field, Message: message}}}
}

// NotFoundError reports an unknown staff code or access code.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// StorageError wraps a failure of the underlying store. Not retried here;
// retry policy, if any, belongs to the storage layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
