// SPDX-License-Identifier: MIT

// Package kernel supplies the kernel values consumed by kcache: dense and
// sparse dot products, the usual kernel functions over a dataset, and a
// precomputed (Gram) kernel for small problems.
//
// These are thin collaborators. The interesting work (caching rows under a
// moving permutation, solving the dual) lives in kcache and lasvm.
//
// Usage:
//
//	ds, err := kernel.ReadLibSVM(f)
//	fn := kernel.RBF(ds, 0.5)            // func(i, j int) float64
//	k := kcache.NewKernel(fn)
package kernel
