package errprocess

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"social_network_client/pkg/logger"
)

var (
	// ErrNoResponse network/transport failure, no HTTP status available
	ErrNoResponse = errors.New("No Server Response")
	// ErrInternal generic server failure text
	ErrInternal = errors.New("Internal Server Error")
)

// ServerError any non-2xx HTTP status
type ServerError struct {
	Status  int
	Message string
	// Body raw response text, used for the distinguished signup/login cases
	Body string
}

func (e *ServerError) Error() string {
	return e.Message
}

// NewServerError collapse status into the generic message
func NewServerError(status int) *ServerError {
	return &ServerError{Status: status, Message: ErrInternal.Error()}
}

// WithMessage copy of e with a distinguished message
func (e *ServerError) WithMessage(msg string) *ServerError {
	return &ServerError{Status: e.Status, Message: msg, Body: e.Body}
}

// IsStatus check err is a ServerError with status
func IsStatus(err error, status int) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Status == status
}

// IsBadRequest check err is a 400
func IsBadRequest(err error) bool {
	return IsStatus(err, http.StatusBadRequest)
}

// FieldError one client-side form constraint
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors client-side form errors, surfaced per field
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(parts, "; ")
}

// Field return the message of field, "" if valid
func (v ValidationErrors) Field(name string) string {
	for _, f := range v {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Banner text of err for an inline dismissible banner
func Banner(err error) string {
	if err == nil {
		return ""
	}
	var (
		se *ServerError
		ve ValidationErrors
	)
	switch {
	case errors.Is(err, ErrNoResponse):
		return ErrNoResponse.Error()
	case errors.As(err, &se):
		return se.Message
	case errors.As(err, &ve):
		return ve.Error()
	default:
		return ErrInternal.Error()
	}
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
