package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"backoffice/internal/core"
)

// JSONResponseBuilder assembles a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse starts a 200 response with no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A nil body writes only the status line.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse creates an error response with a machine-readable code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "invalid_request", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// InternalServerError creates a 500 response. The message never carries the
// underlying error.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", "internal server error")
}

var invalidInput = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrInvalidMethod,
	core.ErrInvalidType,
	core.ErrInvalidCounterparty,
	core.ErrInvalidFilter,
	core.ErrInvalidDismissal,
	core.ErrInvalidDocument,
	core.ErrInvalidEntity,
	core.ErrUnknownEntityKind,
	errBadBody,
}

// ErrorFrom maps a domain error onto a response. ok is false for errors that
// are not part of the domain, which callers log and report as 500.
func ErrorFrom(err error) (b *JSONResponseBuilder, ok bool) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error()), true
	case errors.Is(err, core.ErrDuplicate):
		return ErrorResponse(http.StatusConflict, "conflict", err.Error()), true
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return BadRequestError(err.Error()), true
		}
	}
	return InternalServerError(), false
}
