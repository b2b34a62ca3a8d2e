// Package apperror defines the single error type returned across the client,
// session and validation layers.
package apperror

import (
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindSessionExpired
	KindRequestFailed
	KindMalformedResponse
	KindValidation
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindSessionExpired:
		return "SessionExpired"
	case KindRequestFailed:
		return "RequestFailed"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNetwork           = &Error{Kind: KindNetwork, Message: "network error"}
	ErrSessionExpired    = &Error{Kind: KindSessionExpired, Message: "session expired, please login again"}
	ErrRequestFailed     = &Error{Kind: KindRequestFailed, Message: "request failed"}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse, Message: "malformed response"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrAuth              = &Error{Kind: KindAuth, Message: "authentication failed"}
)

// FieldError is one failed constraint of a validated value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed failure.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status for KindRequestFailed, 0 otherwise.
	Status int
	// Fields lists every failed constraint for KindValidation.
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.Field)
			b.WriteString(" ")
			b.WriteString(f.Message)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, ErrSessionExpired).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "network error", Err: err}
}

func SessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Message: ErrSessionExpired.Message}
}

// RequestFailed builds a server-side failure. An empty message becomes
// "request failed".
func RequestFailed(status int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = ErrRequestFailed.Message
	}
	return &Error{Kind: KindRequestFailed, Message: message, Status: status}
}

func MalformedResponse(err error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: ErrMalformedResponse.Message, Err: err}
}

func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: ErrValidation.Message, Fields: fields}
}

func Auth(message string) *Error {
	if message == "" {
		message = ErrAuth.Message
	}
	return &Error{Kind: KindAuth, Message: message}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
