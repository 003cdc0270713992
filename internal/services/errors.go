package services

import (
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
)

// ErrorKind classifies domain failures so controllers can pick a status code
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindConflict
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is returned by services for every expected failure. Anything else
// reaching a controller is an internal error.
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field messages for validation failures
	Fields map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, serializers.FieldErrors(e.Fields).Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Invalid reports a validation failure that is not tied to a single field
func Invalid(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// InvalidFields wraps field errors collected by a serializer or a reference check
func InvalidFields(message string, fields serializers.FieldErrors) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// AsError unwraps err into a *Error when it is one
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// IsKind reports whether err is a service error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	svcErr, ok := AsError(err)
	return ok && svcErr.Kind == kind
}

// Viewer is the identity a request is evaluated for. The zero value is the
// anonymous viewer.
type Viewer struct {
	ID      uint
	IsStaff bool
}

func (v Viewer) Authenticated() bool {
	return v.ID != 0
}

// canModify reports whether v may change or delete something owned by ownerID
func (v Viewer) canModify(ownerID uint) bool {
	return v.IsStaff || (v.Authenticated() && v.ID == ownerID)
}
