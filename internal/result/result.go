// Package result carries the outcome of a call to an external collaborator
// (question graph, language model) so callers decide explicitly what to do
// with a missing value or a failure instead of relying on logged side effects.
package result

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an outcome.
type Kind int

const (
	KindOK Kind = iota
	KindNotFound
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is a value together with the outcome that produced it.
// Value is only meaningful when Kind is KindOK.
type Result[T any] struct {
	Value T
	Kind  Kind
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Kind: KindOK}
}

// None reports that the call succeeded but produced nothing.
func None[T any]() Result[T] {
	return Result[T]{Kind: KindNotFound}
}

// Transient reports a failure that may succeed if retried.
func Transient[T any](err error) Result[T] {
	return Result[T]{Kind: KindTransient, Err: err}
}

// Fatal reports a failure that retrying will not fix.
func Fatal[T any](err error) Result[T] {
	return Result[T]{Kind: KindFatal, Err: err}
}

// FromError builds a failed result, classifying err with Classify.
func FromError[T any](err error) Result[T] {
	return Result[T]{Kind: Classify(err), Err: err}
}

// Ok reports whether the result holds a value.
func (r Result[T]) Ok() bool {
	return r.Kind == KindOK
}

// Failed reports whether the result is a transient or fatal failure.
func (r Result[T]) Failed() bool {
	return r.Kind == KindTransient || r.Kind == KindFatal
}

// Get returns the value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.Kind == KindOK
}

// ErrTransient marks an error as retryable when wrapped.
var ErrTransient = errors.New("transient failure")

// Classify maps an error to a failure kind. Timeouts, network errors and
// anything wrapping ErrTransient are transient; everything else is fatal.
// A nil error classifies as KindOK.
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindFatal
}
