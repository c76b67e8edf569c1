package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
)

// Validation constants
const (
	MaxNameLength    = 200
	MaxAddressLength = 500
)

// LoadError reports that a read against the data store failed.
// Loads are never retried here; the caller decides what to do.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError wraps a store read failure. Not-found sentinels pass through untouched.
func NewLoadError(source string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) || isNotFound(err) {
		return err
	}
	return &LoadError{Source: source, Err: err}
}

// IsLoadError reports whether err is (or wraps) a LoadError
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// ValidationError reports proposed data that violates a range or uniqueness rule.
// It is always returned before any write is attempted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for a field
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IntegrityError describes a record whose linkage cannot be resolved,
// such as a payment that points at no known plan.
type IntegrityError struct {
	PaymentID int32  `json:"paymentId"`
	PlanID    int32  `json:"planId"`
	Reason    string `json:"reason"`
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("payment %d (plan %d): %s", e.PaymentID, e.PlanID, e.Reason)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrRikshawNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
