package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateEmployeeNumber = errors.New("employee number already in use")
	ErrIDMismatch              = errors.New("teacher id in path does not match body")
	ErrNotFound                = errors.New("teacher not found")
)

// ValidationError carries one message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorKind classifies errors for the HTTP and page layers.
type ErrorKind int

const (
	KindStore ErrorKind = iota
	KindValidation
	KindDuplicate
	KindMismatch
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindMismatch:
		return "mismatch"
	case KindNotFound:
		return "not_found"
	default:
		return "store"
	}
}

// KindOf maps any error returned by the repository or service to its kind.
// Anything unrecognised is a store error.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateEmployeeNumber):
		return KindDuplicate
	case errors.Is(err, ErrIDMismatch):
		return KindMismatch
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindStore
	}
}
