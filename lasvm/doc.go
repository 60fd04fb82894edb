// SPDX-License-Identifier: MIT

// Package lasvm trains two-class Support Vector Machines by dual coordinate
// ascent over a kernel matrix served row by row from a kcache.Cache.
//
// The dual problem solved is
//
//	maximize   W(α) = Σ b_i α_i − ½ Σ α_i α_j K(i,j)
//	subject to cmin_i ≤ α_i ≤ cmax_i   (and Σ α_i = const when the
//	                                     equality constraint is enabled)
//
// with the gradient g = b − Kα. For a classifier b_i = y_i and the box is
// [0, cp] for positive and [−cn, 0] for negative examples, so α_i carries
// the sign of its label.
//
// Two strategies share one coordinate-step and shrinking core:
//
//   - Online ingests examples one at a time (Process), improves the current
//     solution one step at a time (Reprocess) and polishes it (Finish). Its
//     working set only holds examples that may still become support vectors.
//   - Batch solves a fixed problem of size n to convergence (Run) and keeps
//     gradients between runs for warm restarts.
//
// Both keep their working set in the leading positions of the cache
// permutation, reorder through cache swaps, and shrink bound-stuck
// coordinates out of the inner loop.
//
// Errors: non-PSD curvature, invalid labels and indices surface as errors
// (see errors.go); a failed call leaves the solver and its cache consistent.
package lasvm
