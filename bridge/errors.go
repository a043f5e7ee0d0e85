package bridge

import (
	"errors"
	"fmt"
)

// ErrNoArguments is returned when a method that requires arguments is
// called with a nil or empty argument bag.
var ErrNoArguments = errors.New("no arguments supplied on method call")

// ErrNotInitialized is returned for every call dispatched before a tracer
// capability has been wired in. It is a precondition failure, distinct
// from argument validation.
var ErrNotInitialized = errors.New("tracer capability is not initialized")

// MissingParameterError reports a required parameter that was absent from
// the argument bag, or present with a type the method cannot use. The two
// cases are deliberately collapsed: a value of the wrong type is as unusable
// as a missing one, and the caller's fix is the same.
type MissingParameterError struct {
	Method    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %s for %s", e.Parameter, e.Method)
}

// NotImplementedError reports a method name outside the recognized set.
type NotImplementedError struct {
	Method string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %s is not implemented", e.Method)
}

// Error kinds, used to tag error metrics and to label failures on the wire.
const (
	KindNoArguments      = "no_arguments"
	KindMissingParameter = "missing_parameter"
	KindNotInitialized   = "not_initialized"
	KindNotImplemented   = "not_implemented"
	KindInternal         = "internal"
)

// ErrorKind classifies an error returned by Dispatcher.Call into one of the
// Kind* constants.
func ErrorKind(err error) string {
	var missing *MissingParameterError
	var notImplemented *NotImplementedError
	switch {
	case errors.Is(err, ErrNoArguments):
		return KindNoArguments
	case errors.Is(err, ErrNotInitialized):
		return KindNotInitialized
	case errors.As(err, &missing):
		return KindMissingParameter
	case errors.As(err, &notImplemented):
		return KindNotImplemented
	default:
		return KindInternal
	}
}
