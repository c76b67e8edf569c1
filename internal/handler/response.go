package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation  = "https://rikshawmart.app/errors/validation"
	ErrorTypeNotFound    = "https://rikshawmart.app/errors/not-found"
	ErrorTypeConflict    = "https://rikshawmart.app/errors/conflict"
	ErrorTypeLoadFailure = "https://rikshawmart.app/errors/load-failure"
	ErrorTypeUnavailable = "https://rikshawmart.app/errors/unavailable"
	ErrorTypeInternal    = "https://rikshawmart.app/errors/internal"
)

func problem(c echo.Context, status int, errorType, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, errors)
}

// NewLoadFailureError reports that the data store could not be read
func NewLoadFailureError(c echo.Context, detail string) error {
	return problem(c, http.StatusBadGateway, ErrorTypeLoadFailure, "Load Failure", detail, nil)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

var conflictErrors = []error{
	domain.ErrCustomerNationalIDTaken,
	domain.ErrCustomerPhoneTaken,
	domain.ErrRikshawEngineNumberTaken,
	domain.ErrRikshawChassisNumberTaken,
	domain.ErrRikshawRegistrationTaken,
	domain.ErrRikshawAlreadySold,
	domain.ErrAlreadyExists,
}

var notFoundErrors = []error{
	domain.ErrCustomerNotFound,
	domain.ErrRikshawNotFound,
	domain.ErrPlanNotFound,
	domain.ErrPaymentNotFound,
	domain.ErrNotFound,
}

var imageErrors = []error{
	service.ErrImageTooLarge,
	service.ErrInvalidFormat,
	service.ErrImageTooSmall,
	service.ErrInvalidImageData,
}

// respondError maps a service error onto a problem response. action names the
// operation for the log line and the generic 500 detail.
func respondError(c echo.Context, err error, action string) error {
	var ve *domain.ValidationError
	isValidation := errors.As(err, &ve)

	if matched := firstMatch(err, conflictErrors); matched != nil {
		var fields []ValidationError
		if isValidation {
			fields = []ValidationError{{Field: ve.Field, Message: matched.Error()}}
		}
		return NewConflictError(c, matched.Error(), fields)
	}

	if isValidation {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: ve.Field, Message: ve.Err.Error()},
		})
	}

	if matched := firstMatch(err, imageErrors); matched != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: matched.Error()},
		})
	}

	if matched := firstMatch(err, notFoundErrors); matched != nil {
		return NewNotFoundError(c, matched.Error())
	}

	if errors.Is(err, service.ErrImageStorageNotConfigured) || errors.Is(err, service.ErrReceiptStorageNotConfigured) {
		return NewServiceUnavailableError(c, err.Error())
	}

	var le *domain.LoadError
	if errors.As(err, &le) {
		log.Error().Err(err).Str("source", le.Source).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
		return NewLoadFailureError(c, "Could not load "+le.Source)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

func firstMatch(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
