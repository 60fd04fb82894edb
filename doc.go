// Package lvsvm trains two-class kernel Support Vector Machines on problems
// whose Gram matrix does not fit in memory.
//
// 🚀 What is lvsvm?
//
//	A small, single-threaded library built from three pieces:
//		• kcache/ – byte-budgeted LRU cache of kernel rows addressed through
//		  a permutation, with partial rows and buddy caches sharing values
//		• lasvm/  – dual coordinate ascent: online Process/Reprocess/Finish
//		  and batch Run with shrinking and warm restarts
//		• kernel/ – LIBSVM reader, linear/RBF/polynomial kernels and a
//		  validated precomputed Gram matrix
//
// ✨ Why choose lvsvm?
//
//   - Bounded memory – only recently used rows stay resident
//   - Online or batch – same step, shrinking and eviction core
//   - Observable – log/slog diagnostics and Prometheus instruments
//   - Honest errors – non-PSD kernels and bad input surface as sentinel errors
//
// Under the hood:
//
//	kcache/         : Cache, Kernel, swaps, Shuffle, buddies
//	lasvm/          : Online, Batch, options, metrics
//	kernel/         : Dataset, kernel functions, Precomputed
//	cmd/svmtrain/   : cobra CLI with a YAML configuration file
//
// Quick sketch of the permutation view:
//
//	positions  0   1   2 | 3   4
//	ids        7   2   9 | 0   4
//	           └ working ┘ └ unseen
//
// the solver keeps its working set in the leading positions and every cached
// row reads in that order.
//
//	go get github.com/katalvlaran/lvsvm
package lvsvm
