// Package result provides utilities for iterating over sequences of values
// where retrieving an element may fail partway through the sequence.
package result

import "iter"

// Result wraps a value of type T or an error.
type Result[T any] struct {
	value T
	err   error
}

// Value returns a Result for a value.
func Value[T any](v T) Result[T] { return Result[T]{value: v} }

// Error returns a Result for an error.
func Error[T any](err error) Result[T] { return Result[T]{err: err} }

// Value returns r's value and error.
func (r Result[T]) Value() (T, error) { return r.value, r.err }

// MustValue returns r's value, panicking if r holds an error.
func (r Result[T]) MustValue() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

// Err returns r's error, if any.
func (r Result[T]) Err() error { return r.err }

// Seq is an iterator over a sequence of Results. When called as seq(yield),
// seq calls yield(r) for each Result in the sequence, stopping early if yield
// returns false.
type Seq[V any] iter.Seq[Result[V]]

// Iter creates a Seq from an iterator function that can fail. Values passed
// to yield are wrapped in a Result. If seq returns a non-nil error, it is
// emitted as the final element of the sequence.
func Iter[V any](seq func(yield func(V) bool) error) Seq[V] {
	return func(yield func(Result[V]) bool) {
		wrapYield := func(v V) bool { return yield(Value(v)) }

		if err := seq(wrapYield); err != nil {
			yield(Error[V](err))
		}
	}
}

// Pull converts a Seq into a pull-based iterator. The returned stop function
// must be called when the iterator is no longer needed.
func Pull[V any](seq Seq[V]) (next func() (Result[V], bool), stop func()) {
	return iter.Pull(iter.Seq[Result[V]](seq))
}

// Collect fully consumes seq, returning the collected values up to the first
// error encountered, if any.
func Collect[V any](seq Seq[V]) ([]V, error) {
	var values []V
	for r := range seq {
		v, err := r.Value()
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}
