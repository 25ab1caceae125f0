// ABOUTME: Standardized error response types and helpers for HTTP handlers
// ABOUTME: Maps domain and validation errors onto one JSON envelope

package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/2389/leadscore/internal/leads"
)

// ErrorResponse is the JSON body of every error returned by the API.
//
//	WriteError(w, http.StatusBadRequest, ErrInvalidConfiguration, "count must not be negative")
type ErrorResponse struct {
	Code    string `json:"code"`              // Machine-readable error code
	Message string `json:"message"`           // Human-readable error message
	Status  int    `json:"status"`            // HTTP status code
	Field   string `json:"field,omitempty"`   // Field that caused a validation error
	Details string `json:"details,omitempty"` // Additional context
}

// Error codes
const (
	// Client errors (4xx)
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidBody          = "invalid_request_body"
	ErrInvalidConfiguration = "invalid_configuration"
	ErrValidationFailed     = "validation_failed"
	ErrNotFound             = "not_found"
	ErrMethodNotAllowed     = "method_not_allowed"

	// Server errors (5xx)
	ErrInternal      = "internal_error"
	ErrDatabaseError = "database_error"
)

// WriteError writes an error envelope with the given status, code and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeErrorResponse(w, ErrorResponse{
		Code:    code,
		Message: message,
		Status:  status,
	})
}

// WriteErrorWithField writes an error envelope naming the offending field.
func WriteErrorWithField(w http.ResponseWriter, status int, code, message, field string) {
	writeErrorResponse(w, ErrorResponse{
		Code:    code,
		Message: message,
		Status:  status,
		Field:   field,
	})
}

// WriteErrorWithDetails writes an error envelope with extra context.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	writeErrorResponse(w, ErrorResponse{
		Code:    code,
		Message: message,
		Status:  status,
		Details: details,
	})
}

// WriteDomainError maps an error from the leads package onto the envelope.
// Invalid configuration is the caller's fault; anything else is ours.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, leads.ErrInvalidConfiguration):
		WriteErrorWithDetails(w, http.StatusBadRequest, ErrInvalidConfiguration, "Invalid configuration", err.Error())
	case stderrors.Is(err, leads.ErrDatasetNotFound):
		WriteError(w, http.StatusNotFound, ErrNotFound, "Dataset not found")
	default:
		WriteErrorWithDetails(w, http.StatusInternalServerError, ErrInternal, "Internal server error", err.Error())
	}
}

// ItemError places an error at one element of a batch request.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// WriteValidationError reports the first failed validator rule, or falls back
// to a generic bad request for other errors. Fields inside an ItemError are
// reported as "[index].field".
func WriteValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		WriteErrorWithDetails(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid request", err.Error())
		return
	}

	fe := verrs[0]
	field := fieldPath(fe)
	var item *ItemError
	if stderrors.As(err, &item) {
		field = fmt.Sprintf("[%d].%s", item.Index, field)
	}
	WriteErrorWithField(w, http.StatusUnprocessableEntity, ErrValidationFailed, validationMessage(fe), field)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp)
}
