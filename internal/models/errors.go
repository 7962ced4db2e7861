package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrAdapterUnavailable = errors.New("service unavailable")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrNotFound           = errors.New("unknown id")
	ErrBusinessRefusal    = errors.New("refused")
	ErrDuplicateRequest   = errors.New("request id already exists")
	ErrCallbackInFlight   = errors.New("callback already being processed")
)

// ValidationError carries the reason shown to the caller for a malformed submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// AdapterError classifies a failed backend call. It matches both its Kind
// (ErrAdapterUnavailable or ErrUnexpectedResponse) and its cause with errors.Is.
type AdapterError struct {
	Service string
	Kind    error
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Service, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason is the short, caller-safe description of the failure.
func (e *AdapterError) Reason() string {
	return fmt.Sprintf("%s %v", e.Service, e.Kind)
}

func Unavailable(service string, err error) error {
	return &AdapterError{Service: service, Kind: ErrAdapterUnavailable, Err: err}
}

func Unexpected(service string, format string, args ...any) error {
	return &AdapterError{Service: service, Kind: ErrUnexpectedResponse, Err: fmt.Errorf(format, args...)}
}

// PublicReason maps any error to the short reason exposed outside the process.
func PublicReason(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	var aerr *AdapterError
	if errors.As(err, &aerr) {
		return aerr.Reason()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrCallbackInFlight):
		return ErrCallbackInFlight.Error()
	case errors.Is(err, ErrValidation):
		return ErrValidation.Error()
	}
	return "internal error"
}
