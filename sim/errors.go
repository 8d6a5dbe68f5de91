package sim

import "errors"

// Caller-input errors. Both are recoverable by fixing the input.
var (
	// ErrInvalidConfiguration reports a slot count or policy parameter outside its domain.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOutOfOrderArrival reports an admission dated before the current tick
	// or before a previously submitted arrival.
	ErrOutOfOrderArrival = errors.New("out-of-order arrival")
)

// ErrInvariantViolation reports a defect in a scheduler implementation or in the
// engine itself. A run that returns it must be discarded; nothing retries it.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrHorizonExceeded is returned by Simulator.Run when active processes remain
// after the configured horizon.
var ErrHorizonExceeded = errors.New("simulation horizon exceeded")
