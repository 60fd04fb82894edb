// SPDX-License-Identifier: MIT
// Package lasvm: sentinel error set.
// All messages are prefixed with "lasvm: ...". Operations wrap them with
// solverErrorf; match with errors.Is.

package lasvm

import (
	"errors"
	"fmt"
)

var (
	// ErrNilCache is returned when a solver is created without a cache.
	ErrNilCache = errors.New("lasvm: cache is nil")

	// ErrBadLabel indicates a label other than +1 or -1.
	ErrBadLabel = errors.New("lasvm: label must be +1 or -1")

	// ErrOutOfRange indicates an example id outside the valid range.
	ErrOutOfRange = errors.New("lasvm: example id out of range")

	// ErrBadParameter indicates an invalid numeric argument (C values,
	// tolerances, problem size).
	ErrBadParameter = errors.New("lasvm: invalid parameter")

	// ErrNotPSD signals a curvature below the negative tolerance: the kernel
	// is not positive semi-definite on the working set.
	ErrNotPSD = errors.New("lasvm: kernel is not positive semi-definite")

	// ErrNonFinite signals a NaN or infinite kernel value or gradient.
	ErrNonFinite = errors.New("lasvm: NaN or Inf encountered")

	// ErrOutOfBox indicates a coefficient outside its box constraint.
	ErrOutOfBox = errors.New("lasvm: coefficient outside its box")

	// ErrDuplicateID indicates the same example id twice in one bulk load.
	ErrDuplicateID = errors.New("lasvm: duplicate example id")

	// ErrLengthMismatch indicates parallel slices of different lengths.
	ErrLengthMismatch = errors.New("lasvm: length mismatch")

	// ErrIterationLimit is returned when WithMaxIterations stops a solve early.
	ErrIterationLimit = errors.New("lasvm: iteration limit reached")
)

// solverErrorf tags err with the failing operation.
func solverErrorf(op string, err error) error {
	return fmt.Errorf("lasvm.%s: %w", op, err)
}
