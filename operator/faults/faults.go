// Package faults defines the stable error taxonomy returned to callers and the
// normalization of underlying failures into it. Every dispatch path funnels
// errors through Normalize so that no raw driver or runtime error ever reaches
// the transport.
package faults

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	NoDevice          Kind = "no_device"
	DeviceOperation   Kind = "device_operation"
	TimedOut          Kind = "timed_out"
	Cancelled         Kind = "cancelled"
	AmbiguousMatch    Kind = "ambiguous_match"
	PreconditionUnmet Kind = "precondition_not_met"
	InvalidArgument   Kind = "invalid_argument"
	UnknownTool       Kind = "unknown_tool"
)

// Fault is an error carrying one taxonomy kind. The underlying cause's message
// is preserved as context; its type is not.
type Fault struct {
	Kind    Kind
	Message string
	cause   error
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.cause }

func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Fault {
	return &Fault{Kind: kind, Message: message, cause: err}
}

// Is makes errors.Is(err, faults.New(kind, ...)) match on kind alone.
func (f *Fault) Is(target error) bool {
	var t *Fault
	if !errors.As(target, &t) {
		return false
	}
	return f.Kind == t.Kind
}

// KindOf reports the taxonomy kind of err, or false when err carries none.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// Failure is the structured form carried inside a failed tool result.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Normalize maps any error into exactly one taxonomy kind. Already-classified
// faults keep their kind; context errors map to Cancelled/TimedOut; everything
// else is a device operation failure. Same input class, same output kind.
func Normalize(err error) Failure {
	var f *Fault
	if errors.As(err, &f) {
		msg := f.Message
		if f.cause != nil {
			msg = fmt.Sprintf("%s: %v", f.Message, f.cause)
		}
		return Failure{Kind: f.Kind, Message: msg}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Failure{Kind: Cancelled, Message: "operation cancelled"}
	case errors.Is(err, context.DeadlineExceeded):
		return Failure{Kind: TimedOut, Message: "operation deadline exceeded"}
	default:
		return Failure{Kind: DeviceOperation, Message: err.Error()}
	}
}
