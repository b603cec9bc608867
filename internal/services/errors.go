package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist or is soft-deleted
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor does not own the record
	ErrForbidden = errors.New("forbidden")
	// ErrVersion is returned when the caller's version does not match the stored version
	ErrVersion = errors.New("E_VERSION")
	// ErrConflict is returned when a write collides with a uniqueness constraint
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned for a failed login or a rejected token
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes malformed input rejected before persistence
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid builds a single-field ValidationError
func invalid(field, reason string) error {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// asValidationError converts ozzo validation errors into a ValidationError.
// Internal rule failures pass through unchanged.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
		return &ValidationError{Fields: fields}
	}

	return &ValidationError{Fields: map[string]string{"input": err.Error()}}
}

// TransitionError reports a rejected lifecycle change
type TransitionError struct {
	From   models.DocumentStatus
	To     models.DocumentStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s rejected: %s", e.From, e.To, e.Reason)
}

// translate maps gorm errors onto the service error taxonomy
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
