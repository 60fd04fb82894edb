// SPDX-License-Identifier: MIT

// Package kcache keeps a byte-budgeted, least-recently-used cache of kernel
// (Gram) matrix rows for solvers whose full matrix does not fit in memory.
//
// What is cached:
//
//	Each example id owns at most one row. A row holds the kernel values
//	K(id, ·) for a leading run of *positions* 0..n-1, where positions are
//	given by a permutation that the caller reorders constantly (a solver
//	keeps its working set in the leading positions). Rows are extended
//	lazily through the user-supplied kernel function and are kept
//	consistent with every swap of the permutation.
//
// Key features:
//   - partial rows: QueryRow(i, n) only computes the missing tail columns;
//   - permanently cached diagonal values K(i,i) once a row is first touched;
//   - value-transparent reordering: SwapByPosition / SwapByID /
//     SwapPositionWithID and the bulk Shuffle repair cached rows in place;
//   - peer groups: caches built on the same *Kernel can serve each other's
//     misses (SetBuddy) without sharing ownership;
//   - soft byte budget: rows are evicted from the least-recently-used end,
//     the row being queried is never evicted by its own query.
//
// Usage:
//
//	k := kcache.NewKernel(func(i, j int) float64 { return dot(x[i], x[j]) })
//	c, err := kcache.New(k, kcache.WithMaximumSize(64<<20))
//	row, err := c.QueryRow(id, n) // row[p] == K(id, c.IDAt(p))
//
// Concurrency: a Cache is not safe for concurrent use. A peer group is a
// lookup relation only; members may be closed independently.
package kcache
