package catalog

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrMenuNotFound     = errors.New("menu not found")
	ErrDishNotFound     = errors.New("dish not found")
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateMenuName is returned by repositories when the unique index rejects a write.
	ErrDuplicateMenuName = errors.New("duplicate menu name")
)

// ValidationError maps a field (or query key) to its messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func FieldError(field, message string) *ValidationError {
	verr := NewValidationError()
	verr.Add(field, message)
	return verr
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(e.Fields[key], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
