// SPDX-License-Identifier: MIT

package kcache_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kcache"
)

// pairValue is a cheap symmetric kernel with distinct values for distinct pairs.
func pairValue(i, j int) float64 {
	a, b := float64(i), float64(j)

	return a*b + math.Sqrt(a+b+1)
}

// newCache builds a cache on pairValue and returns it with its kernel handle.
func newCache(t *testing.T, opts ...kcache.Option) (*kcache.Cache, *kcache.Kernel) {
	t.Helper()
	k := kcache.NewKernel(pairValue)
	c, err := kcache.New(k, opts...)
	require.NoError(t, err)

	return c, k
}

// requirePermutation checks that the two permutation tables are inverse.
func requirePermutation(t *testing.T, c *kcache.Cache) {
	t.Helper()
	n := c.Capacity()
	i2r := c.IDToRow(n)
	r2i := c.RowToID(n)
	for r := 0; r < n; r++ {
		require.Equal(t, r, i2r[r2i[r]], "i2r[r2i[%d]]", r)
		require.Equal(t, r, r2i[i2r[r]], "r2i[i2r[%d]]", r)
	}
}

// requireRowsConsistent checks every cached column against the kernel under
// the current permutation.
func requireRowsConsistent(t *testing.T, c *kcache.Cache) {
	t.Helper()
	n := c.Capacity()
	r2i := c.RowToID(n)
	for id := 0; id < n; id++ {
		s := c.StatusRow(id)
		if s == 0 {
			continue
		}
		row, err := c.QueryRow(id, s)
		require.NoError(t, err)
		for p, v := range row {
			require.Equal(t, pairValue(id, r2i[p]), v, "row %d column %d", id, p)
		}
	}
}
