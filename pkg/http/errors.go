package http

import (
	"fmt"
	"net/http"
)

// Codes shared by every handler. Domain failures bring their own.
const (
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeRateLimited = "ERR_RATE_LIMITED"
	CodeTimeout     = "ERR_TIMEOUT"
	CodeInternal    = "ERR_INTERNAL"
)

// AppError is a failure reported to the client inside the envelope. The cause
// stays in the error chain for logs and is never serialized.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
	Status  int            `json:"-"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
}

func (e *AppError) Unwrap() error { return e.cause }

// Errorf builds an AppError with a formatted message.
func Errorf(status int, code, format string, a ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, a...), Status: status}
}

// WithParam attaches a value the client can act on, such as the id of a stored run.
func (e *AppError) WithParam(key string, value any) *AppError {
	if e.Params == nil {
		e.Params = map[string]any{}
	}
	e.Params[key] = value
	return e
}

// Because records the underlying error.
func (e *AppError) Because(err error) *AppError {
	e.cause = err
	return e
}

func NotFound(format string, a ...any) *AppError {
	return Errorf(http.StatusNotFound, CodeNotFound, format, a...)
}

// Unprocessable reports a well-formed request the data cannot satisfy.
func Unprocessable(code string, err error) *AppError {
	return Errorf(http.StatusUnprocessableEntity, code, "%v", err).Because(err)
}

func RateLimited(key string) *AppError {
	return Errorf(http.StatusTooManyRequests, CodeRateLimited, "too many forecast requests").WithParam("client", key)
}

func Timeout(err error) *AppError {
	return Errorf(http.StatusGatewayTimeout, CodeTimeout, "request timed out").Because(err)
}

func Internal(err error) *AppError {
	return Errorf(http.StatusInternalServerError, CodeInternal, "internal error").Because(err)
}
