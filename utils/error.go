package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies engine failures for transport mapping. Every mutation
// returns exactly one kind; nothing is swallowed.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "VALIDATION"
	ErrorKindState      ErrorKind = "STATE"
	ErrorKindConflict   ErrorKind = "CONFLICT"
	ErrorKindCapacity   ErrorKind = "CAPACITY"
	ErrorKindNotFound   ErrorKind = "NOT_FOUND"
)

type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(format string, args ...interface{}) error {
	return &EngineError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewStateError(format string, args ...interface{}) error {
	return &EngineError{Kind: ErrorKindState, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) error {
	return &EngineError{Kind: ErrorKindConflict, Message: fmt.Sprintf(format, args...)}
}

func NewCapacityError(format string, args ...interface{}) error {
	return &EngineError{Kind: ErrorKindCapacity, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &EngineError{Kind: ErrorKindNotFound, Message: fmt.Sprintf(format, args...)}
}

// AsEngineError unwraps err into an EngineError; ErrorRecordNotFound maps to
// the NOT_FOUND kind so handlers can treat both uniformly.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return &EngineError{Kind: ErrorKindNotFound, Message: err.Error()}, true
	}
	return nil, false
}
