// Package fn provides small functional building blocks: a Result type,
// composable context-aware stages, and slice helpers. The indexing pipeline
// is assembled from these.
package fn

import "fmt"

// Result holds either a value or an error.
type Result[T any] struct {
	val T
	err error
	ok  bool
}

// Ok wraps a value in a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v, ok: true}
}

// Err wraps an error in a failed Result.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Errf formats an error into a failed Result.
func Errf[T any](format string, args ...any) Result[T] {
	return Result[T]{err: fmt.Errorf(format, args...)}
}

// IsOk reports whether the Result holds a value.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether the Result holds an error.
func (r Result[T]) IsErr() bool { return !r.ok }

// Unwrap returns the value and the error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value, or fallback when the Result is an error.
func (r Result[T]) UnwrapOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.val
}

// Must returns the value or panics on error. Wiring code only.
func (r Result[T]) Must() T {
	if !r.ok {
		panic(r.err)
	}
	return r.val
}
