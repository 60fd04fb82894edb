// SPDX-License-Identifier: MIT

package lasvm_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kernel"
	"github.com/katalvlaran/lvsvm/lasvm"
)

func TestMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := lasvm.NewMetrics(reg, "test")
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ds := noisy(60)
	o, err := lasvm.NewOnline(newCache(t, kernel.RBF(ds, 0.5)), 1, 1,
		lasvm.WithMetrics(m), lasvm.WithLogger(log), lasvm.WithShrinkPeriod(4))
	require.NoError(t, err)
	for id := 0; id < ds.Len(); id++ {
		_, err = o.Process(id, ds.Label(id))
		require.NoError(t, err)
	}
	_, err = o.Finish(context.Background(), 1e-4)
	require.NoError(t, err)

	assert.Positive(t, testutil.ToFloat64(m.Steps))
	assert.Less(t, testutil.ToFloat64(m.Gap), 1e-4)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Contains(t, buf.String(), "msg=finish")

	// nil metrics are valid
	o2, err := lasvm.NewOnline(newCache(t, kernel.Linear(ds)), 1, 1, lasvm.WithMetrics(nil))
	require.NoError(t, err)
	_, err = o2.Process(0, ds.Label(0))
	assert.NoError(t, err)
}
