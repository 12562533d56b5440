// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/catalog-api/internal/utils"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied")
)

// ValidationError is returned before any store call when input is malformed.
type ValidationError struct {
	Message string
	Fields  []utils.ValidationError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

// StoreError wraps a failed query. Its detail is logged, never sent to clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newValidationError(message string, fields ...utils.ValidationError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// validate runs the struct validator and converts its result.
func validate(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		if fields := utils.GetValidationErrors(err); len(fields) > 0 {
			return newValidationError("validation failed", fields...)
		}
		return newValidationError(err.Error())
	}
	return nil
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
