// SPDX-License-Identifier: MIT

package kcache_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kcache"
)

// TestMetrics_TrackActivity checks counters and the resident gauge.
func TestMetrics_TrackActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := kcache.NewMetrics(reg, "svm")
	c, k := newCache(t, kcache.WithMetrics(m), kcache.WithMaximumSize(80))

	_, err := c.QueryRow(0, 10)
	require.NoError(t, err)
	_, err = c.QueryRow(0, 4)
	require.NoError(t, err)
	_, err = c.QueryRow(1, 10)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evictions))
	assert.Equal(t, float64(k.Evaluations()), testutil.ToFloat64(m.KernelEvals))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.ResidentBytes))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	c.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ResidentBytes))
}
