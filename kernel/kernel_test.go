// SPDX-License-Identifier: MIT

package kernel_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kernel"
)

// TestDot covers dense and sparse products.
func TestDot(t *testing.T) {
	assert.Equal(t, 11.0, kernel.Dot([]float64{1, 2}, []float64{3, 4, 5}))

	v := kernel.SparseVector{Index: []int{0, 3, 7}, Value: []float64{1, 2, 3}}
	w := kernel.SparseVector{Index: []int{3, 5, 7}, Value: []float64{4, 5, 6}}
	assert.Equal(t, 26.0, v.Dot(w))
	assert.Equal(t, 14.0, v.SquaredNorm())
}

// TestReadLibSVM parses labels and features and rejects malformed input.
func TestReadLibSVM(t *testing.T) {
	in := "# comment\n+1 1:0.5 3:2\n\n-1 2:1\n3 1:1\n"
	ds, err := kernel.ReadLibSVM(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []float64{1, -1, 1}, ds.Y)
	assert.Equal(t, []int{1, 3}, ds.X[0].Index)

	_, err = kernel.ReadLibSVM(strings.NewReader("1 2:1 1:3\n"))
	assert.ErrorIs(t, err, kernel.ErrBadLine)
	_, err = kernel.ReadLibSVM(strings.NewReader("x 1:1\n"))
	assert.ErrorIs(t, err, kernel.ErrBadLine)
	_, err = kernel.ReadLibSVM(strings.NewReader("1 1=1\n"))
	assert.ErrorIs(t, err, kernel.ErrBadLine)
	_, err = kernel.ReadLibSVM(strings.NewReader("\n"))
	assert.ErrorIs(t, err, kernel.ErrEmptyDataset)
}

// TestFunctions checks linear, RBF and polynomial values on dense input.
func TestFunctions(t *testing.T) {
	ds := kernel.NewDataset([][]float64{{1, 0}, {0, 2}, {1, 1}}, []float64{1, -1, 1})

	lin := kernel.Linear(ds)
	assert.Equal(t, 0.0, lin(0, 1))
	assert.Equal(t, 2.0, lin(1, 2))

	rbf := kernel.RBF(ds, 0.5)
	assert.Equal(t, 1.0, rbf(2, 2))
	assert.InDelta(t, math.Exp(-0.5*5), rbf(0, 1), 1e-12)

	poly := kernel.Polynomial(ds, 2, 1, 1)
	assert.Equal(t, 9.0, poly(1, 2))

	_, err := kernel.ByName(ds, "sigmoid", 0, 0, 0)
	assert.Error(t, err)
	fn, err := kernel.ByName(ds, "rbf", 0, 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, rbf(0, 2), fn(0, 2))
}

// TestPrecomputed validates shape, finiteness and symmetry.
func TestPrecomputed(t *testing.T) {
	p, err := kernel.NewPrecomputed([][]float64{{2, 1}, {1, 3}}, 1e-12)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 1.0, p.Func()(1, 0))

	_, err = kernel.NewPrecomputed([][]float64{{2, 1}, {1.5, 3}}, 1e-12)
	assert.ErrorIs(t, err, kernel.ErrAsymmetry)
	_, err = kernel.NewPrecomputed([][]float64{{2, 1}}, 1e-12)
	assert.ErrorIs(t, err, kernel.ErrNonSquare)
	_, err = kernel.NewPrecomputed([][]float64{{math.NaN()}}, 1e-12)
	assert.ErrorIs(t, err, kernel.ErrNaNInf)

	g := kernel.Gram(3, func(i, j int) float64 { return float64(i * j) })
	assert.Equal(t, 2.0, g.At(2, 1))
	assert.Equal(t, g.At(1, 2), g.At(2, 1))
}

// TestConcat keeps ids of the first set and shifts the second.
func TestConcat(t *testing.T) {
	a := kernel.NewDataset([][]float64{{1, 0}, {0, 1}}, []float64{1, -1})
	b := kernel.NewDataset([][]float64{{2, 2}}, []float64{-1})
	ab := a.Concat(b)
	require.Equal(t, 3, ab.Len())
	assert.Equal(t, []float64{1, -1, -1}, ab.Y)
	assert.Equal(t, 2.0, kernel.Linear(ab)(0, 2))
	assert.Equal(t, 2, a.Len(), "inputs untouched")
}
