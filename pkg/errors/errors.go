package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeStateConflict  Code = "STATE_CONFLICT"
	CodeIdempotency    Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit      Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeDependency     Code = "DEPENDENCY_ERROR"

	CodeShiftNotFound             Code = "SHIFT_NOT_FOUND"
	CodeInvalidStatus             Code = "INVALID_STATUS"
	CodeInvalidTransition         Code = "INVALID_TRANSITION"
	CodeGuardAssignmentRequired   Code = "GUARD_ASSIGNMENT_REQUIRED"
	CodeGuardConfirmationRequired Code = "GUARD_CONFIRMATION_REQUIRED"
	CodeShiftNotStarted           Code = "SHIFT_NOT_STARTED"
	CodeCompletionCriteriaNotMet  Code = "COMPLETION_CRITERIA_NOT_MET"
	CodeValidation                Code = "VALIDATION_ERROR"
	CodeTransition                Code = "TRANSITION_ERROR"
	CodeBulkAction                Code = "BULK_ACTION_ERROR"
	CodeMonitoring                Code = "MONITORING_ERROR"
	CodeAlertCreation             Code = "ALERT_CREATION_ERROR"
	CodeAlertNotFound             Code = "ALERT_NOT_FOUND"
	CodeConcurrentModification    Code = "CONCURRENT_MODIFICATION"
)

// Metadata describes how a Code surfaces over HTTP. When ExposeMessage is
// set the error's own message replaces PublicMessage in responses.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

// clientError codes describe a problem with the request. Their messages are
// written for callers and are shown as is.
func clientError(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, ExposeMessage: true, DetailsAllowed: details}
}

// serverError codes hide their message behind the public one.
func serverError(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: true, PublicMessage: public, DetailsAllowed: details}
}

func (m Metadata) retryable() Metadata {
	m.Retryable = true
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidRequest: clientError(http.StatusBadRequest, "invalid request", true),
	CodeUnauthorized:   clientError(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:      clientError(http.StatusForbidden, "access denied", false),
	CodeNotFound:       clientError(http.StatusNotFound, "resource not found", false),
	CodeConflict:       clientError(http.StatusConflict, "conflict detected", false),
	CodeStateConflict:  clientError(http.StatusUnprocessableEntity, "state transition disallowed", true),
	CodeIdempotency:    clientError(http.StatusConflict, "idempotency key reused", true),
	CodeRateLimit:      clientError(http.StatusTooManyRequests, "rate limit exceeded", false),
	CodeInternal:       serverError(http.StatusInternalServerError, "internal server error", false),
	CodeDependency:     serverError(http.StatusServiceUnavailable, "dependency unavailable", true),

	CodeShiftNotFound:             clientError(http.StatusNotFound, "shift not found", false),
	CodeInvalidStatus:             clientError(http.StatusBadRequest, "invalid shift status", true),
	CodeInvalidTransition:         clientError(http.StatusUnprocessableEntity, "status transition not allowed", true),
	CodeGuardAssignmentRequired:   clientError(http.StatusUnprocessableEntity, "shift must have an assigned guard", true),
	CodeGuardConfirmationRequired: clientError(http.StatusUnprocessableEntity, "guard must confirm the assignment", true),
	CodeShiftNotStarted:           clientError(http.StatusUnprocessableEntity, "shift has not started yet", true),
	CodeCompletionCriteriaNotMet:  clientError(http.StatusUnprocessableEntity, "shift completion criteria not met", true),
	CodeAlertNotFound:             clientError(http.StatusNotFound, "alert not found", false),
	CodeValidation:                serverError(http.StatusInternalServerError, "failed to validate transition", false),
	CodeTransition:                serverError(http.StatusInternalServerError, "failed to transition shift", false),
	CodeBulkAction:                serverError(http.StatusInternalServerError, "failed to execute bulk action", false),
	CodeMonitoring:                serverError(http.StatusInternalServerError, "failed to monitor shifts", false),
	CodeAlertCreation:             serverError(http.StatusInternalServerError, "failed to create alert", false),
	CodeConcurrentModification:    clientError(http.StatusConflict, "shift was modified concurrently", true).retryable(),
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
