// SPDX-License-Identifier: MIT

package kernel

// Dot returns the dot product of two dense vectors of equal length.
// Extra trailing entries of the longer vector are ignored.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}

	return s
}

// SparseVector stores the non-zero entries of a vector, indices ascending.
type SparseVector struct {
	Index []int
	Value []float64
}

// Dot returns the dot product of two sparse vectors by merging their indices.
func (v SparseVector) Dot(w SparseVector) float64 {
	var s float64
	i, j := 0, 0
	for i < len(v.Index) && j < len(w.Index) {
		switch {
		case v.Index[i] == w.Index[j]:
			s += v.Value[i] * w.Value[j]
			i++
			j++
		case v.Index[i] < w.Index[j]:
			i++
		default:
			j++
		}
	}

	return s
}

// SquaredNorm returns v·v.
func (v SparseVector) SquaredNorm() float64 {
	var s float64
	for _, x := range v.Value {
		s += x * x
	}

	return s
}
