// Package apperr defines the error taxonomy shared by all three services
// and the HTTP status mapping applied at the edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an error with the propagation policy that applies to it (§7).
type Kind string

const (
	// KindValidation marks malformed or incomplete input; never retried.
	KindValidation Kind = "validation"
	// KindNotFound marks a missing entity.
	KindNotFound Kind = "not_found"
	// KindStateTransition marks an illegal lifecycle transition.
	KindStateTransition Kind = "state_transition"
	// KindStorage marks a persistence failure; consumer-side triggers requeue.
	KindStorage Kind = "storage"
	// KindBus marks a publish/subscribe failure.
	KindBus Kind = "bus"
	// KindDownstream marks a failed outbound call to a sibling service.
	KindDownstream Kind = "downstream"
)

// Error is the structured failure type returned by core operations. It never
// carries a stack trace; HTTP callers see its Error() string (kind, Message
// and the wrapped cause, if any).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error                  { return new_(KindValidation, msg, nil) }
func Validationf(format string, a ...interface{}) *Error { return new_(KindValidation, fmt.Sprintf(format, a...), nil) }
func NotFound(msg string) *Error                    { return new_(KindNotFound, msg, nil) }
func StateTransition(msg string) *Error             { return new_(KindStateTransition, msg, nil) }
func Storage(msg string, err error) *Error          { return new_(KindStorage, msg, err) }
func Bus(msg string, err error) *Error              { return new_(KindBus, msg, err) }
func Downstream(msg string, err error) *Error       { return new_(KindDownstream, msg, err) }

// KindOf extracts the Kind of err, walking the chain, defaulting to
// KindStorage for unrecognised errors (fail closed to a 500).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// StatusCode maps a Kind to the HTTP status the edge should respond with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateTransition:
		return http.StatusBadRequest
	case KindBus:
		return http.StatusInternalServerError
	case KindDownstream:
		return http.StatusInternalServerError
	case KindStorage:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a consumer should nack+requeue a message that
// failed with err (§5 backpressure, §7 propagation policy).
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindStorage, KindBus:
		return true
	default:
		return false
	}
}
