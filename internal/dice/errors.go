package dice

import "errors"

var (
	// ErrNoHistory is returned by Undo or Redo when there is nothing to move.
	ErrNoHistory = errors.New("no history")

	// ErrDivideByZero is returned by Normalize for a mapping that sums to 0.
	ErrDivideByZero = errors.New("cannot normalize a distribution that sums to zero")

	// ErrInvalidArgument is wrapped by constructors rejecting a configuration.
	ErrInvalidArgument = errors.New("invalid argument")
)
