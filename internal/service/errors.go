package service

import (
	"errors"
	"fmt"
)

// Taxonomía de errores expuesta a los callers.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many attempts")
	ErrExternalIdentity   = errors.New("external identity error")
)

// ValidationError señala un campo requerido ausente o mal formado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ErrValidation permite chequear con errors.Is sin conocer el campo.
var ErrValidation = errors.New("validation error")

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RepositoryError envuelve cualquier falla de la capa de almacenamiento.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// ErrRepository permite chequear con errors.Is sin conocer la operación.
var ErrRepository = errors.New("repository error")

func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}

func wrapRepoErr(op string, err error) error {
	return &RepositoryError{Op: op, Err: err}
}
