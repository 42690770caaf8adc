package store

import (
	"errors"
	"sort"
	"strings"

	"github.com/petermazzocco/grams/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError carries the per-field problems that stopped a write.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f, msgs := range e.Fields {
		fields = append(fields, f+" "+strings.Join(msgs, ", "))
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

func validationError(fe models.FieldErrors) error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}
