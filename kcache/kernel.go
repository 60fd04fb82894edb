// SPDX-License-Identifier: MIT

package kcache

// Func computes one kernel value K(i, j) for two example ids.
// It must be symmetric; callers close over whatever data they need.
type Func func(i, j int) float64

// Kernel is the identity handle of a kernel function. Caches built on the same
// *Kernel compute identical values and may therefore be linked as buddies.
type Kernel struct {
	fn    Func
	evals uint64
}

// NewKernel wraps fn. It returns nil when fn is nil.
func NewKernel(fn Func) *Kernel {
	if fn == nil {
		return nil
	}

	return &Kernel{fn: fn}
}

// Eval calls the kernel function and counts the evaluation.
func (k *Kernel) Eval(i, j int) float64 {
	k.evals++

	return k.fn(i, j)
}

// Evaluations reports how many times Eval has run since creation.
func (k *Kernel) Evaluations() uint64 { return k.evals }
