// Package options implements the generic functional-option pattern used by the
// estimator, forecast and source constructors.
package options

import (
	"errors"
	"fmt"

	"github.com/arloliu/arps/errs"
)

// Option represents a functional option for configuring any type T.
type Option[T any] interface {
	apply(T) error
}

// Func is a generic functional option that wraps a function.
// It implements the Option interface for any type T.
type Func[T any] struct {
	applyFunc func(T) error
}

// apply implements the Option interface.
func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates a new functional option from a function that may reject its input.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates a functional option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies options in order and stops at the first failure.
//
// Errors are reported as errs.ErrInvalidOption so that callers can tell a
// rejected option apart from other construction failures.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			if errors.Is(err, errs.ErrInvalidOption) {
				return err
			}

			return fmt.Errorf("%w: %w", errs.ErrInvalidOption, err)
		}
	}

	return nil
}
