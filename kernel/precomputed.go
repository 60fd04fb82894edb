// SPDX-License-Identifier: MIT

package kernel

import "math"

// Precomputed serves kernel values from a full symmetric matrix held in one
// row-major slice, for problems small enough to tabulate.
type Precomputed struct {
	n    int
	data []float64
}

// NewPrecomputed validates m (square, finite, symmetric within eps) and copies it.
func NewPrecomputed(m [][]float64, eps float64) (*Precomputed, error) {
	n := len(m)
	if n == 0 {
		return nil, ErrEmptyDataset
	}
	p := &Precomputed{n: n, data: make([]float64, n*n)}
	for i, row := range m {
		if len(row) != n {
			return nil, ErrNonSquare
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ErrNaNInf
			}
			p.data[i*n+j] = v
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(p.data[i*n+j]-p.data[j*n+i]) > eps {
				return nil, ErrAsymmetry
			}
		}
	}

	return p, nil
}

// Gram tabulates fn over ids [0, n).
func Gram(n int, fn func(i, j int) float64) *Precomputed {
	p := &Precomputed{n: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := fn(i, j)
			p.data[i*n+j] = v
			p.data[j*n+i] = v
		}
	}

	return p
}

// Len returns the matrix order.
func (p *Precomputed) Len() int { return p.n }

// At returns K(i,j).
func (p *Precomputed) At(i, j int) float64 { return p.data[i*p.n+j] }

// Func exposes the matrix as a kernel function.
func (p *Precomputed) Func() func(i, j int) float64 { return p.At }
