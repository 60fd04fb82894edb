// SPDX-License-Identifier: MIT
// Package kcache: sentinel error set.
// Every message is prefixed with "kcache: ...". Call sites wrap sentinels with
// cacheErrorf so callers still match them with errors.Is.

package kcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNilKernel is returned when a cache is created without a kernel.
	ErrNilKernel = errors.New("kcache: kernel is nil")

	// ErrNilCache is returned when a nil cache is passed where one is required.
	ErrNilCache = errors.New("kcache: cache is nil")

	// ErrOutOfRange indicates a negative example id, position or row length.
	ErrOutOfRange = errors.New("kcache: index out of range")

	// ErrBadSize indicates a negative byte budget.
	ErrBadSize = errors.New("kcache: invalid maximum size")

	// ErrKernelMismatch is returned by SetBuddy when the two caches are not
	// built on the same *Kernel.
	ErrKernelMismatch = errors.New("kcache: buddies must share the same kernel")

	// ErrClosed marks any use of a cache after Close.
	ErrClosed = errors.New("kcache: cache is closed")

	// ErrAttached is returned by Attach when another solver already owns the cache.
	ErrAttached = errors.New("kcache: cache already attached to a solver")
)

// cacheErrorf tags err with the failing operation.
func cacheErrorf(op string, err error) error {
	return fmt.Errorf("kcache.%s: %w", op, err)
}
