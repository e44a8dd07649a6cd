package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrorBuilder builds an Error.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error with the given status, code and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Status: strconv.Itoa(status), Code: code, Title: title}}
}

func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Pointer sets the JSON pointer of the offending body field, e.g. "/title".
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Pointer = pointer
	return b
}

// Parameter sets the offending query parameter, e.g. "title_gt".
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the status as an int, 0 when unset.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// ErrBadRequest is a malformed request: unreadable body or bad id.
func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrValidation returns one 400 error per detail. A detail of the form
// "field: message" points at /field.
func ErrValidation(model string, details ...string) []Error {
	if len(details) == 0 {
		details = []string{"invalid value"}
	}

	errs := make([]Error, 0, len(details))
	for _, d := range details {
		b := NewError(http.StatusBadRequest, "validation_error", "Validation Failed").Detail(d)
		if model != "" {
			b.Meta("model", model)
		}
		if field, _, ok := strings.Cut(d, ": "); ok && field != "" && field != "(root)" && !strings.ContainsAny(field, " /") {
			b.Pointer("/" + field)
		}
		errs = append(errs, b.Build())
	}
	return errs
}

// ErrUnauthorized is a request without credentials.
func ErrUnauthorized(detail string) Error {
	if detail == "" {
		detail = "Authentication required"
	}
	return NewError(http.StatusUnauthorized, "unauthorized", "Unauthorized").Detail(detail).Build()
}

// ErrForbidden is a request whose credentials were rejected.
func ErrForbidden(detail string) Error {
	if detail == "" {
		detail = "Access denied"
	}
	return NewError(http.StatusForbidden, "forbidden", "Forbidden").Detail(detail).Build()
}

// ErrNotFound names what was not found.
func ErrNotFound(what string) Error {
	return NewError(http.StatusNotFound, "not_found", "Not Found").
		Detailf("The requested %s was not found", what).
		Build()
}

// ErrConfiguration is a model whose configuration cannot be served.
func ErrConfiguration(detail string) Error {
	if detail == "" {
		detail = "The model is not configured"
	}
	return NewError(http.StatusInternalServerError, "configuration_error", "Configuration Error").Detail(detail).Build()
}

// ErrInternal hides the cause; it is logged, not returned.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error").Detail(detail).Build()
}
