// SPDX-License-Identifier: MIT

package lasvm

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/lvsvm/kcache"
)

// Batch solves a fixed problem over the examples [0,n) to convergence.
//
// Between calls to Run, position p of the cache holds example p, so all
// accessors and setters are indexed by example id. Gradients survive a Run
// and are updated by the setters, which makes a second Run on a slightly
// changed problem a warm restart. Reset forces a full recomputation.
type Batch struct {
	solver
	n int
}

// NewBatch creates a batch solver over n examples with every coefficient,
// linear term and box at zero. Configure the problem with SetLabel or
// SetBox and SetLinear before Run. It claims cache until Close.
func NewBatch(cache *kcache.Cache, n int, opts ...Option) (*Batch, error) {
	if cache == nil {
		return nil, solverErrorf("NewBatch", ErrNilCache)
	}
	if n <= 0 {
		return nil, solverErrorf("NewBatch", fmt.Errorf("%w: n=%d", ErrBadParameter, n))
	}
	if err := cache.Attach(); err != nil {
		return nil, solverErrorf("NewBatch", err)
	}
	b := &Batch{solver: newSolver(cache, gatherConfig(opts)), n: n}
	b.reserve(n)
	b.ent = b.ent[:n]
	for p := range b.ent {
		b.ent[p].kdiag = math.NaN()
	}
	b.l, b.s = n, n
	if err := b.align(); err != nil {
		cache.Detach()

		return nil, solverErrorf("NewBatch", err)
	}

	return b, nil
}

// align reorders the cache alone so that position p holds id p for p < n.
func (b *Batch) align() error {
	for id := 0; id < b.n; id++ {
		pos, err := b.cache.PositionOf(id)
		if err != nil {
			return err
		}
		if pos != id {
			if err = b.cache.SwapByPosition(id, pos); err != nil {
				return err
			}
		}
	}

	return nil
}

// unswap undoes the reordering of a solve on both entries and cache.
func (b *Batch) unswap() error {
	for id := 0; id < b.n; id++ {
		pos, err := b.cache.PositionOf(id)
		if err != nil {
			return err
		}
		if err = b.swap(id, pos); err != nil {
			return err
		}
	}

	return nil
}

func (b *Batch) check(op string, id int) error {
	if id < 0 || id >= b.n {
		return solverErrorf(op, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, id, b.n))
	}

	return nil
}

// SetLabel configures example id as a classification example: linear term y
// and box [0,cp] for y = +1 or [−cn,0] for y = −1. The coefficient is moved
// into the new box as SetBox does.
func (b *Batch) SetLabel(id int, y, cp, cn float64) error {
	if err := b.check("SetLabel", id); err != nil {
		return err
	}
	if y != 1 && y != -1 {
		return solverErrorf("SetLabel", fmt.Errorf("%w: %g", ErrBadLabel, y))
	}
	if !validC(cp) || !validC(cn) {
		return solverErrorf("SetLabel", fmt.Errorf("%w: cp=%g cn=%g", ErrBadParameter, cp, cn))
	}
	cmin, cmax := 0.0, cp
	if y < 0 {
		cmin, cmax = -cn, 0
	}
	if err := b.checkRebox(id, cmin, cmax); err != nil {
		return solverErrorf("SetLabel", err)
	}
	if err := b.SetLinear(id, y); err != nil {
		return err
	}

	return b.SetBox(id, cmin, cmax)
}

// SetLinear sets the linear term b of example id.
func (b *Batch) SetLinear(id int, v float64) error {
	if err := b.check("SetLinear", id); err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return solverErrorf("SetLinear", fmt.Errorf("%w: b=%g", ErrNonFinite, v))
	}
	e := &b.ent[id]
	e.g += v - e.b
	e.b = v
	b.ext.valid = false

	return nil
}

// SetBox sets the bounds of example id. A coefficient outside the new box is
// clipped into it. Under the equality constraint the clipped amount is then
// handed to the other examples in id order, each taking what its box allows,
// so the sum of the coefficients is unchanged; when they lack the room SetBox
// fails with ErrOutOfBox and leaves the problem untouched.
func (b *Batch) SetBox(id int, cmin, cmax float64) error {
	if err := b.check("SetBox", id); err != nil {
		return err
	}
	if err := b.checkRebox(id, cmin, cmax); err != nil {
		return solverErrorf("SetBox", err)
	}
	e := &b.ent[id]
	old, before := e.alpha, e.contribution()
	e.cmin, e.cmax = cmin, cmax
	x := min(max(old, cmin), cmax)
	if err := b.moveAlpha(id, old, before, x); err != nil {
		return solverErrorf("SetBox", err)
	}
	if b.cfg.sum {
		if err := b.spread(id, old-x); err != nil {
			return solverErrorf("SetBox", err)
		}
	}

	return nil
}

// checkRebox validates the box [cmin,cmax] for id and, under the equality
// constraint, that the others can absorb what clipping into it removes.
func (b *Batch) checkRebox(id int, cmin, cmax float64) error {
	if math.IsNaN(cmin) || math.IsNaN(cmax) || math.IsInf(cmin, 0) || math.IsInf(cmax, 0) || cmin > cmax {
		return fmt.Errorf("%w: [%g,%g]", ErrBadParameter, cmin, cmax)
	}
	if !b.cfg.sum {
		return nil
	}
	old := b.ent[id].alpha
	r := old - min(max(old, cmin), cmax)
	if r == 0 {
		return nil
	}
	room := 0.0
	for q := 0; q < b.n; q++ {
		if q != id {
			room += b.room(q, r)
		}
	}
	if room < math.Abs(r) {
		return fmt.Errorf("%w: id %d: clipping %g into [%g,%g] leaves %g that the others cannot absorb",
			ErrOutOfBox, id, old, cmin, cmax, math.Abs(r)-room)
	}

	return nil
}

// room is how far the coefficient of q can move in the direction of r.
func (b *Batch) room(q int, r float64) float64 {
	e := &b.ent[q]
	if r > 0 {
		return max(e.cmax-e.alpha, 0)
	}

	return max(e.alpha-e.cmin, 0)
}

// spread adds r to the coefficients other than id, filling each in id order.
func (b *Batch) spread(id int, r float64) error {
	rem := math.Abs(r)
	for q := 0; q < b.n && rem > 0; q++ {
		if q == id {
			continue
		}
		room := b.room(q, r)
		if room == 0 {
			continue
		}
		e := &b.ent[q]
		x := e.alpha + math.Copysign(rem, r)
		switch {
		case room <= rem && r > 0:
			x = e.cmax
		case room <= rem:
			x = e.cmin
		}
		rem -= min(room, rem)
		if err := b.moveAlpha(q, e.alpha, e.contribution(), x); err != nil {
			return err
		}
	}

	return nil
}

// SetAlpha sets the coefficient of example id, which must lie in its box.
func (b *Batch) SetAlpha(id int, x float64) error {
	if err := b.check("SetAlpha", id); err != nil {
		return err
	}
	e := &b.ent[id]
	if math.IsNaN(x) || x < e.cmin || x > e.cmax {
		return solverErrorf("SetAlpha", fmt.Errorf("%w: id %d alpha %g not in [%g,%g]", ErrOutOfBox, id, x, e.cmin, e.cmax))
	}
	if err := b.moveAlpha(id, e.alpha, e.contribution(), x); err != nil {
		return solverErrorf("SetAlpha", err)
	}

	return nil
}

// moveAlpha changes the coefficient of id from old to x, keeping fresh
// gradients current. before is the baseline contribution the coefficient had
// under its previous bounds.
func (b *Batch) moveAlpha(id int, old, before, x float64) error {
	e := &b.ent[id]
	e.alpha = x
	b.ext.valid = false
	if !b.fresh {
		return nil
	}
	if delta := x - old; delta != 0 {
		row, err := b.row(id, b.n)
		if err != nil {
			b.fresh = false

			return err
		}
		for p := 0; p < b.n; p++ {
			b.ent[p].g -= delta * row[p]
		}
	}
	if err := b.shiftBaseline(id, before); err != nil {
		b.fresh = false

		return err
	}

	return nil
}

// Reset marks every gradient stale; the next Run recomputes them.
func (b *Batch) Reset() {
	b.fresh = false
}

// recompute rebuilds g (and gbar) from scratch: O(n) rows.
func (b *Batch) recompute() error {
	for p := range b.ent[:b.n] {
		b.ent[p].g = b.ent[p].b
		b.ent[p].gbar = 0
	}
	for q := 0; q < b.n; q++ {
		e := &b.ent[q]
		if e.alpha == 0 {
			continue
		}
		row, err := b.row(q, b.n)
		if err != nil {
			return err
		}
		counted := b.cfg.baseline && e.counted()
		for p := 0; p < b.n; p++ {
			b.ent[p].g -= e.alpha * row[p]
			if counted {
				b.ent[p].gbar += e.alpha * row[p]
			}
		}
	}
	b.fresh = true

	return nil
}

// Run solves the problem until the gap is below epsgr (> 0) and returns the
// number of steps. On return, including on error, results are indexed by
// example id again.
func (b *Batch) Run(ctx context.Context, epsgr float64) (int, error) {
	if math.IsNaN(epsgr) || epsgr <= 0 {
		return 0, solverErrorf("Run", fmt.Errorf("%w: epsgr=%g", ErrBadParameter, epsgr))
	}
	if err := b.align(); err != nil {
		return 0, solverErrorf("Run", err)
	}
	b.l, b.s = b.n, b.n
	b.ext.valid = false
	if !b.fresh {
		if err := b.recompute(); err != nil {
			b.fresh = false

			return 0, solverErrorf("Run", err)
		}
		b.cfg.log.Debug("run: gradients recomputed", slog.Int("n", b.n))
	}

	iter, err := b.optimize(ctx, epsgr)
	if uerr := b.unswap(); uerr != nil && err == nil {
		err = uerr
	}
	if err != nil {
		return iter, solverErrorf("Run", err)
	}
	b.cfg.log.Info("run",
		slog.Int("n", b.n),
		slog.Int("iter", iter),
		slog.Float64("gap", b.gap()),
		slog.Float64("objective", b.Objective()),
	)

	return iter, nil
}

// Alpha returns the coefficients indexed by example id.
func (b *Batch) Alpha() []float64 {
	out := make([]float64, b.n)
	for p := range out {
		out[p] = b.ent[p].alpha
	}

	return out
}
