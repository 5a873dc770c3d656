package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error categories. Request handling wraps these so transports can map
// a failure to an HTTP status without inspecting message strings.
var (
	ErrPathFormat      = errors.New("invalid image path")
	ErrModifierParse   = errors.New("invalid modifier")
	ErrModifierInvalid = errors.New("modifier not allowed")
	ErrSignature       = errors.New("signature verification failed")
	ErrSourceNotFound  = errors.New("source image not found")
	ErrFilesystem      = errors.New("filesystem failure")
	ErrPresetNotFound  = errors.New("preset not found")
)

// RequestError is a request-scoped failure: a category, a user-facing
// message and the wrapped cause.
type RequestError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RequestError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewRequestError builds a categorized request failure.
func NewRequestError(kind error, message string) *RequestError {
	return &RequestError{Kind: kind, Message: message}
}

// WrapRequestError builds a categorized request failure around a cause.
func WrapRequestError(kind error, message string, cause error) *RequestError {
	return &RequestError{Kind: kind, Message: message, Cause: cause}
}

// HTTPStatus maps an error to the status a transport should answer
// with. Unrecognized errors are internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSignature):
		return http.StatusForbidden
	case errors.Is(err, ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPathFormat),
		errors.Is(err, ErrModifierParse),
		errors.Is(err, ErrModifierInvalid),
		errors.Is(err, ErrPresetNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message a client may see. Internal failures
// are masked so causes only reach the logs.
func UserMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) && HTTPStatus(err) != http.StatusInternalServerError {
		return re.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
