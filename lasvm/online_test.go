// SPDX-License-Identifier: MIT

package lasvm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvsvm/kcache"
	"github.com/katalvlaran/lvsvm/kernel"
	"github.com/katalvlaran/lvsvm/lasvm"
)

func TestNewOnline_Validation(t *testing.T) {
	_, err := lasvm.NewOnline(nil, 1, 1)
	assert.ErrorIs(t, err, lasvm.ErrNilCache)

	c := newCache(t, kernel.Linear(separable()))
	_, err = lasvm.NewOnline(c, 0, 1)
	assert.ErrorIs(t, err, lasvm.ErrBadParameter)
	_, err = lasvm.NewOnline(c, 1, -2)
	assert.ErrorIs(t, err, lasvm.ErrBadParameter)

	o, err := lasvm.NewOnline(c, 1, 1)
	require.NoError(t, err)
	_, err = lasvm.NewOnline(c, 1, 1)
	assert.ErrorIs(t, err, kcache.ErrAttached, "one solver per cache")

	o.Close()
	o2, err := lasvm.NewOnline(c, 1, 1)
	require.NoError(t, err)
	o2.Close()
}

func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { lasvm.WithTau(0) })
	assert.Panics(t, func() { lasvm.WithPSDTolerance(-1) })
	assert.Panics(t, func() { lasvm.WithKKTEpsilon(-1) })
	assert.Panics(t, func() { lasvm.WithShrinkPeriod(-1) })
	assert.Panics(t, func() { lasvm.WithMaxIterations(-1) })
}

func TestOnline_SeparableScenario(t *testing.T) {
	ds := separable()
	fn := kernel.Linear(ds)
	o, err := lasvm.NewOnline(newCache(t, fn), 1, 1)
	require.NoError(t, err)
	defer o.Close()

	for id := 0; id < separableTrain; id++ {
		_, err = o.Process(id, ds.Label(id))
		require.NoError(t, err)
	}
	_, err = o.Finish(context.Background(), 1e-3)
	require.NoError(t, err)

	assert.Less(t, o.Gap(), 1e-3)
	assert.InDelta(t, 0, o.Bias(), 1e-2)

	// the margin is set by (2,2) and (-2,-2) alone: w = (1/4, 1/4)
	alpha := map[int]float64{}
	for _, sv := range o.SupportVectors() {
		alpha[sv.ID] = sv.Alpha
	}
	assert.InDelta(t, 1.0/16, alpha[0], 1e-2)
	assert.InDelta(t, -1.0/16, alpha[1], 1e-2)
	var rest float64
	for id, a := range alpha {
		if id > 1 {
			rest += max(a, -a)
		}
	}
	assert.Less(t, rest, 1e-2)
	assert.InDelta(t, 0.0625, o.Objective(), 1e-3)

	ws := o.WorkingSet()
	requireFeasible(t, ws, ds.Label, 1, 1, true)
	requireGradients(t, ws, o.Gradients(), fn, ds.Label)

	for id := 0; id < ds.Len(); id++ {
		f, err := o.Predict(id)
		require.NoError(t, err)
		assert.Equal(t, ds.Label(id) > 0, f > 0, "sign of id %d", id)
	}
}

func TestOnline_ProcessContract(t *testing.T) {
	ds := separable()
	o, err := lasvm.NewOnline(newCache(t, kernel.Linear(ds)), 1, 1)
	require.NoError(t, err)

	_, err = o.Process(0, 0.5)
	assert.ErrorIs(t, err, lasvm.ErrBadLabel)
	_, err = o.Process(-1, 1)
	assert.ErrorIs(t, err, lasvm.ErrOutOfRange)

	l, err := o.Process(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, l)
	l, err = o.Process(1, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, l)

	// already known: no change
	l, err = o.Process(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, l)
	assert.Equal(t, 2, o.Len())

	// one paired step solves the two-point problem exactly
	ws := o.WorkingSet()
	assert.InDelta(t, 1.0/16, ws[0].Alpha, 1e-12)
	assert.InDelta(t, -1.0/16, ws[1].Alpha, 1e-12)
	assert.InDelta(t, 0, o.Gap(), 1e-12)
}

func TestOnline_RejectWithoutEquality(t *testing.T) {
	ds := separable()
	reg := prometheus.NewRegistry()
	m := lasvm.NewMetrics(reg, "test")
	c := newCache(t, kernel.Linear(ds))
	o, err := lasvm.NewOnline(c, 1, 1, lasvm.WithEqualityConstraint(false), lasvm.WithMetrics(m))
	require.NoError(t, err)

	l, err := o.Process(0, 1)
	require.NoError(t, err)
	require.Equal(t, 1, l)
	// single Newton step: 1/K(0,0)
	assert.InDelta(t, 0.125, o.WorkingSet()[0].Alpha, 1e-12)
	assert.Zero(t, o.Bias())

	// (3,3) is already on the right side: y*g = 1 - 0.125*12 < 0
	l, err = o.Process(2, 1)
	require.NoError(t, err)
	assert.Zero(t, l)
	assert.Equal(t, 1, o.Len())
	pos, err := c.PositionOf(2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pos, o.Len(), "rejected id stays outside the working set")
	assert.Zero(t, c.StatusRow(2), "rejected row is not resident")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps))
}

func TestOnline_RejectKeepsRowCachedEarlier(t *testing.T) {
	ds := separable()
	c := newCache(t, kernel.Linear(ds))
	o, err := lasvm.NewOnline(c, 1, 1, lasvm.WithEqualityConstraint(false))
	require.NoError(t, err)
	defer o.Close()

	_, err = o.Process(0, 1)
	require.NoError(t, err)
	_, err = c.QueryRow(2, 1)
	require.NoError(t, err)
	l, err := o.Process(2, 1)
	require.NoError(t, err)
	assert.Zero(t, l)
	assert.Equal(t, 1, c.StatusRow(2))
}

func TestOnline_ReprocessMonotone(t *testing.T) {
	ds := noisy(60)
	fn := kernel.RBF(ds, 0.5)
	o, err := lasvm.NewOnline(newCache(t, fn), 1, 1)
	require.NoError(t, err)

	prev := o.Objective()
	for id := 0; id < ds.Len(); id++ {
		_, err = o.Process(id, ds.Label(id))
		require.NoError(t, err)
		for k := 0; k < 2; k++ {
			before := o.Objective()
			_, err = o.Reprocess(0)
			require.NoError(t, err)
			require.GreaterOrEqual(t, o.Objective(), before-1e-12)
		}
		require.GreaterOrEqual(t, o.Objective(), prev-1e-12)
		prev = o.Objective()
		requireFeasible(t, o.WorkingSet(), ds.Label, 1, 1, true)
	}
	requireGradients(t, o.WorkingSet(), o.Gradients(), fn, ds.Label)
}

func TestOnline_ReprocessConverged(t *testing.T) {
	ds := separable()
	o, err := lasvm.NewOnline(newCache(t, kernel.Linear(ds)), 1, 1)
	require.NoError(t, err)
	_, err = o.Process(0, 1)
	require.NoError(t, err)
	_, err = o.Process(1, -1)
	require.NoError(t, err)

	l, err := o.Reprocess(1e-6)
	require.NoError(t, err)
	assert.Zero(t, l, "gap already below tolerance")
	n, err := o.Finish(context.Background(), 1e-6)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = o.Reprocess(-1)
	assert.ErrorIs(t, err, lasvm.ErrBadParameter)
	_, err = o.Finish(context.Background(), 0)
	assert.ErrorIs(t, err, lasvm.ErrBadParameter)
}

func TestOnline_FinishMatchesUnderCachePressure(t *testing.T) {
	ds := noisy(80)
	fn := kernel.RBF(ds, 0.5)

	solve := func(opts ...kcache.Option) *lasvm.Online {
		o, err := lasvm.NewOnline(newCache(t, fn, opts...), 1, 1)
		require.NoError(t, err)
		for id := 0; id < ds.Len(); id++ {
			_, err = o.Process(id, ds.Label(id))
			require.NoError(t, err)
			_, err = o.Reprocess(0)
			require.NoError(t, err)
		}
		_, err = o.Finish(context.Background(), 1e-4)
		require.NoError(t, err)

		return o
	}
	roomy := solve()
	tight := solve(kcache.WithMaximumSize(2048))

	assert.InDelta(t, roomy.Objective(), tight.Objective(), 1e-3)
	requireGradients(t, tight.WorkingSet(), tight.Gradients(), fn, ds.Label)
	requireFeasible(t, tight.WorkingSet(), ds.Label, 1, 1, true)
}

func TestOnline_FinishEvicts(t *testing.T) {
	ds := noisy(80)
	fn := kernel.RBF(ds, 0.5)
	o, err := lasvm.NewOnline(newCache(t, fn), 1, 1)
	require.NoError(t, err)
	for id := 0; id < ds.Len(); id++ {
		_, err = o.Process(id, ds.Label(id))
		require.NoError(t, err)
	}
	_, err = o.Finish(context.Background(), 1e-3)
	require.NoError(t, err)

	ws, g := o.WorkingSet(), o.Gradients()
	gmax, gmin := -1e300, 1e300
	for p, v := range ws {
		lo, hi := 0.0, 1.0
		if ds.Label(v.ID) < 0 {
			lo, hi = -1, 0
		}
		if v.Alpha < hi {
			gmax = max(gmax, g[p])
		}
		if v.Alpha > lo {
			gmin = min(gmin, g[p])
		}
	}
	for p, v := range ws {
		if v.Alpha != 0 {
			continue
		}
		if ds.Label(v.ID) < 0 {
			assert.Less(t, g[p], gmax, "id %d should have been evicted", v.ID)
		} else {
			assert.Greater(t, g[p], gmin, "id %d should have been evicted", v.ID)
		}
	}
}

func TestOnline_NotPSD(t *testing.T) {
	p, err := kernel.NewPrecomputed([][]float64{{1, 2}, {2, 1}}, 0)
	require.NoError(t, err)
	c := newCache(t, p.Func())
	o, err := lasvm.NewOnline(c, 1, 1)
	require.NoError(t, err)

	_, err = o.Process(0, 1)
	require.NoError(t, err)
	_, err = o.Process(1, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lasvm.ErrNotPSD), "got %v", err)

	// the failed step left the working set and the permutation consistent
	assert.Equal(t, 2, o.Len())
	for _, v := range o.WorkingSet() {
		assert.Zero(t, v.Alpha)
	}
	n := c.Capacity()
	i2r, r2i := c.IDToRow(n), c.RowToID(n)
	for r := 0; r < n; r++ {
		require.Equal(t, r, i2r[r2i[r]])
	}
}

func TestOnline_Init(t *testing.T) {
	ds := noisy(40)
	fn := kernel.RBF(ds, 0.5)
	b := newLabelledBatch(t, newCache(t, fn), ds, ds.Len(), 1, 1)
	_, err := b.Run(context.Background(), 1e-4)
	require.NoError(t, err)
	full := b.WorkingSet()

	o, err := lasvm.NewOnline(newCache(t, fn), 1, 1)
	require.NoError(t, err)

	err = o.Init(full, make([]float64, 3))
	assert.ErrorIs(t, err, lasvm.ErrLengthMismatch)
	err = o.Init([]lasvm.SupportVector{{ID: 1, Alpha: 0.5}, {ID: 1, Alpha: 0.5}}, nil)
	assert.ErrorIs(t, err, lasvm.ErrDuplicateID)
	err = o.Init([]lasvm.SupportVector{{ID: 1, Alpha: 2}}, nil)
	assert.ErrorIs(t, err, lasvm.ErrOutOfBox)
	assert.Zero(t, o.Len(), "failed Init changes nothing")

	require.NoError(t, o.Init(full, nil))
	nonzero := 0
	for _, v := range full {
		if v.Alpha != 0 {
			nonzero++
		}
	}
	assert.Equal(t, nonzero, o.Len(), "zero coefficients are dropped")
	requireGradients(t, o.WorkingSet(), o.Gradients(), fn, ds.Label)

	for id := 0; id < ds.Len(); id++ {
		want, err := b.Predict(id)
		require.NoError(t, err)
		got, err := o.PredictNoCache(id)
		require.NoError(t, err)
		// both biases come from extremes of different sets: compare sums only
		assert.InDelta(t, want+b.Bias(), got+o.Bias(), 1e-9)
	}
}

func TestOnline_FinishCancelled(t *testing.T) {
	ds := noisy(60)
	fn := kernel.RBF(ds, 0.5)
	o, err := lasvm.NewOnline(newCache(t, fn), 1, 1)
	require.NoError(t, err)
	for id := 0; id < ds.Len(); id++ {
		_, err = o.Process(id, ds.Label(id))
		require.NoError(t, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Finish(ctx, 1e-3)
	assert.ErrorIs(t, err, context.Canceled)
	requireGradients(t, o.WorkingSet(), o.Gradients(), fn, ds.Label)
}
