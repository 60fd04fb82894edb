// SPDX-License-Identifier: MIT

package lasvm_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kcache"
	"github.com/katalvlaran/lvsvm/kernel"
	"github.com/katalvlaran/lvsvm/lasvm"
)

// separable holds two clusters along the diagonal; labels alternate so the
// ids can be fed in order. The last two points are held out.
func separable() *kernel.Dataset {
	x := [][]float64{
		{2, 2}, {-2, -2},
		{3, 3}, {-3, -3},
		{2, 3}, {-3, -2},
		{3, 2}, {-2, -3},
		{4, 4}, {-4, -4},
		{1, 2}, {-1, -0.5},
	}
	y := []float64{1, -1, 1, -1, 1, -1, 1, -1, 1, -1, 1, -1}

	return kernel.NewDataset(x, y)
}

const separableTrain = 10

// noisy returns n points labelled by the sign of x+y with label noise, so a
// soft-margin solution has coefficients at both bounds.
func noisy(n int) *kernel.Dataset {
	rng := rand.New(rand.NewPCG(7, 11))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		x[i] = []float64{a, b}
		y[i] = 1
		if a+b+0.6*rng.NormFloat64() < 0 {
			y[i] = -1
		}
	}

	return kernel.NewDataset(x, y)
}

func newCache(t *testing.T, fn func(i, j int) float64, opts ...kcache.Option) *kcache.Cache {
	t.Helper()
	c, err := kcache.New(kcache.NewKernel(fn), opts...)
	require.NoError(t, err)

	return c
}

// requireGradients checks g_i = y_i − Σ α_j K(i,j) over a working set.
func requireGradients(t *testing.T, ws []lasvm.SupportVector, g []float64, fn func(i, j int) float64, label func(int) float64) {
	t.Helper()
	require.Len(t, g, len(ws))
	for p, v := range ws {
		want := label(v.ID)
		for _, u := range ws {
			want -= u.Alpha * fn(v.ID, u.ID)
		}
		require.InDelta(t, want, g[p], 1e-9, "gradient of id %d", v.ID)
	}
}

// requireFeasible checks the box and the equality constraint.
func requireFeasible(t *testing.T, ws []lasvm.SupportVector, label func(int) float64, cp, cn float64, sum bool) {
	t.Helper()
	var total float64
	for _, v := range ws {
		if label(v.ID) > 0 {
			require.GreaterOrEqual(t, v.Alpha, 0.0)
			require.LessOrEqual(t, v.Alpha, cp)
		} else {
			require.LessOrEqual(t, v.Alpha, 0.0)
			require.GreaterOrEqual(t, v.Alpha, -cn)
		}
		total += v.Alpha
	}
	if sum {
		require.InDelta(t, 0, total, 1e-9)
	}
}

// newLabelledBatch builds a batch over the first n examples of ds.
func newLabelledBatch(t *testing.T, c *kcache.Cache, ds *kernel.Dataset, n int, cp, cn float64, opts ...lasvm.Option) *lasvm.Batch {
	t.Helper()
	b, err := lasvm.NewBatch(c, n, opts...)
	require.NoError(t, err)
	for id := 0; id < n; id++ {
		require.NoError(t, b.SetLabel(id, ds.Label(id), cp, cn))
	}

	return b
}
