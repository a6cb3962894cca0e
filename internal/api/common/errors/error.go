package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindBadRequest          Kind = "bad_request"
	KindExternalUnavailable Kind = "external_unavailable"
	KindInternal            Kind = "internal"
)

// Error carries a machine readable kind next to the human message.
type Error struct {
	Kind     Kind
	Resource string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFoundErr(resource, name string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Resource: resource,
		Message:  fmt.Sprintf("%s %s not found", resource, name),
	}
}

func ConflictErr(message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: message,
	}
}

func BadRequestErr(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func UnavailableErr(resource string, err error) *Error {
	return &Error{
		Kind:     KindExternalUnavailable,
		Resource: resource,
		Message:  fmt.Sprintf("%s unavailable", resource),
		Err:      err,
	}
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindExternalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
