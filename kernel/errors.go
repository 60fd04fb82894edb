// SPDX-License-Identifier: MIT

package kernel

import "errors"

var (
	// ErrEmptyDataset indicates a dataset without examples.
	ErrEmptyDataset = errors.New("kernel: dataset is empty")

	// ErrBadLine indicates a malformed line in LIBSVM text input.
	ErrBadLine = errors.New("kernel: malformed input line")

	// ErrNonSquare indicates a precomputed kernel matrix that is not square.
	ErrNonSquare = errors.New("kernel: matrix is not square")

	// ErrAsymmetry indicates a precomputed kernel matrix that is not symmetric within eps.
	ErrAsymmetry = errors.New("kernel: matrix is not symmetric within eps")

	// ErrNaNInf indicates a NaN or infinite kernel value.
	ErrNaNInf = errors.New("kernel: NaN or Inf encountered")
)
