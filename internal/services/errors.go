package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidationFailed  = errors.New("validation failed")
	ErrDuplicate         = errors.New("already exists")
	ErrUnauthorized      = errors.New("invalid credentials")
)

// ValidationError carries the per-field reasons an input was rejected.
type ValidationError struct {
	Fields []utils.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// validate runs the struct tags of req and converts failures to a ValidationError.
func validate(req interface{}) error {
	if fields := utils.ValidateStruct(req); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldError(field, message string) error {
	return &ValidationError{Fields: []utils.FieldError{{Field: field, Message: message}}}
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}

// isUniqueViolation recognises a unique constraint failure from either driver,
// translated or not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
