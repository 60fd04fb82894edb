// SPDX-License-Identifier: MIT

package lasvm

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/lvsvm/kcache"
)

// Online is the incremental strategy: examples enter one at a time through
// Process, the solution improves one step at a time through Reprocess, and
// Finish polishes it to a tolerance.
//
// The working set [0,l) holds the examples that may still become support
// vectors; examples whose coefficient can no longer leave zero are evicted
// and their positions reused. Between calls every gradient is current.
type Online struct {
	solver
	cp, cn float64
}

// NewOnline creates an online solver with box [0,cp] for positive and
// [−cn,0] for negative examples. It claims cache until Close.
// WithGradientBaseline has no effect here.
func NewOnline(cache *kcache.Cache, cp, cn float64, opts ...Option) (*Online, error) {
	if cache == nil {
		return nil, solverErrorf("NewOnline", ErrNilCache)
	}
	if !validC(cp) || !validC(cn) {
		return nil, solverErrorf("NewOnline", fmt.Errorf("%w: cp=%g cn=%g", ErrBadParameter, cp, cn))
	}
	cfg := gatherConfig(opts)
	cfg.baseline = false
	if err := cache.Attach(); err != nil {
		return nil, solverErrorf("NewOnline", err)
	}

	return &Online{solver: newSolver(cache, cfg), cp: cp, cn: cn}, nil
}

func validC(c float64) bool {
	return c > 0 && !math.IsInf(c, 0)
}

// box returns the bounds of a coefficient with label y.
func (o *Online) box(y float64) (cmin, cmax float64) {
	if y > 0 {
		return 0, o.cp
	}

	return -o.cn, 0
}

// Process offers example id with label y (±1). An example already in the
// working set is left alone and the current size is returned. A rejected
// example returns 0. An admitted one is inserted with α = 0, receives exactly
// one coordinate step, and the new working-set size is returned.
func (o *Online) Process(id int, y float64) (int, error) {
	if y != 1 && y != -1 {
		return 0, solverErrorf("Process", fmt.Errorf("%w: %g", ErrBadLabel, y))
	}
	if id < 0 {
		return 0, solverErrorf("Process", ErrOutOfRange)
	}
	pos, err := o.cache.PositionOf(id)
	if err != nil {
		return 0, solverErrorf("Process", err)
	}
	if pos < o.l {
		return o.l, nil
	}

	cached := o.cache.StatusRow(id) > 0
	row, err := o.cache.QueryRow(id, o.l)
	if err != nil {
		return 0, solverErrorf("Process", err)
	}
	g := y
	for p := 0; p < o.l; p++ {
		if a := o.ent[p].alpha; a != 0 {
			g -= a * row[p]
		}
	}
	if math.IsNaN(g) || math.IsInf(g, 0) {
		o.release(id, cached)

		return 0, solverErrorf("Process", fmt.Errorf("%w: gradient of id %d", ErrNonFinite, id))
	}

	x := o.extremes()
	if o.reject(x, y, g) {
		o.release(id, cached)
		o.cfg.metrics.rejected()
		o.cfg.log.Debug("process: rejected", slog.Int("id", id), slog.Float64("g", g))

		return 0, nil
	}

	o.reserve(o.l + 1)
	if err = o.cache.SwapPositionWithID(o.l, id); err != nil {
		return 0, solverErrorf("Process", err)
	}
	cmin, cmax := o.box(y)
	o.ent[o.l] = entry{cmin: cmin, cmax: cmax, g: g, b: y, kdiag: math.NaN()}
	n := o.l
	o.l++
	o.s = o.l
	o.ext.valid = false

	var moved, hit bool
	switch {
	case !o.cfg.sum:
		moved, hit, err = o.stepSingle(n)
	case y > 0 && x.imin >= 0:
		moved, hit, err = o.stepPair(n, x.imin)
	case y < 0 && x.imax >= 0:
		moved, hit, err = o.stepPair(x.imax, n)
	}
	if err != nil {
		return o.l, solverErrorf("Process", err)
	}
	if !moved {
		o.cache.DiscardRow(id)
		o.cfg.log.Debug("process: admitted without step", slog.Int("id", id))
	} else if hit {
		o.cfg.log.Debug("process: step hit bound", slog.Int("id", id))
	}

	return o.l, nil
}

// release gives back the row of a candidate left out of the working set.
// A row cached before the candidate arrived is only demoted.
func (o *Online) release(id int, cached bool) {
	if cached {
		o.cache.DiscardRow(id)

		return
	}
	o.cache.DropRow(id)
}

// reject is the admission test for a new example with gradient g.
func (o *Online) reject(x extremes, y, g float64) bool {
	if !o.cfg.sum {
		return y*g < 0
	}
	if x.gmin >= x.gmax {
		return false
	}

	return (y > 0 && g < x.gmin) || (y < 0 && g > x.gmax)
}

// Reprocess performs one step on the most violating coordinate(s), then
// evicts examples stuck at zero. It returns the new working-set size, or 0
// when the gap is already below epsgr.
func (o *Online) Reprocess(epsgr float64) (int, error) {
	if math.IsNaN(epsgr) || epsgr < 0 {
		return 0, solverErrorf("Reprocess", fmt.Errorf("%w: epsgr=%g", ErrBadParameter, epsgr))
	}
	moved, err := o.stepOnce(epsgr)
	if err != nil {
		return 0, solverErrorf("Reprocess", err)
	}
	if !moved {
		return 0, nil
	}
	if _, err = o.evict(); err != nil {
		return 0, solverErrorf("Reprocess", err)
	}

	return o.l, nil
}

// Finish runs steps with shrinking until the gap is below epsgr (> 0), then
// evicts. It returns the number of steps; 0 means nothing changed.
func (o *Online) Finish(ctx context.Context, epsgr float64) (int, error) {
	if math.IsNaN(epsgr) || epsgr <= 0 {
		return 0, solverErrorf("Finish", fmt.Errorf("%w: epsgr=%g", ErrBadParameter, epsgr))
	}
	iter, err := o.optimize(ctx, epsgr)
	if err != nil {
		return iter, solverErrorf("Finish", err)
	}
	evicted, err := o.evict()
	if err != nil {
		return iter, solverErrorf("Finish", err)
	}
	o.cfg.log.Info("finish",
		slog.Int("iter", iter),
		slog.Int("l", o.l),
		slog.Int("evicted", evicted),
		slog.Float64("gap", o.gap()),
	)

	return iter, nil
}

// Init replaces the working set with svs, for example a solution computed
// elsewhere. g, when not nil, supplies the matching gradients; otherwise they
// are recomputed through the cache. The label of each example is the sign of
// its coefficient, so zero coefficients cannot be placed: they are skipped
// with a warning. Nothing changes if any entry is invalid.
func (o *Online) Init(svs []SupportVector, g []float64) error {
	if g != nil && len(g) != len(svs) {
		return solverErrorf("Init", fmt.Errorf("%w: %d coefficients, %d gradients", ErrLengthMismatch, len(svs), len(g)))
	}
	seen := make(map[int]struct{}, len(svs))
	for _, v := range svs {
		switch {
		case v.ID < 0:
			return solverErrorf("Init", fmt.Errorf("%w: id %d", ErrOutOfRange, v.ID))
		case math.IsNaN(v.Alpha) || math.IsInf(v.Alpha, 0):
			return solverErrorf("Init", fmt.Errorf("%w: id %d", ErrNonFinite, v.ID))
		case v.Alpha > o.cp || v.Alpha < -o.cn:
			return solverErrorf("Init", fmt.Errorf("%w: id %d alpha %g", ErrOutOfBox, v.ID, v.Alpha))
		}
		if _, dup := seen[v.ID]; dup {
			return solverErrorf("Init", fmt.Errorf("%w: %d", ErrDuplicateID, v.ID))
		}
		seen[v.ID] = struct{}{}
	}

	o.l, o.s = 0, 0
	o.ext.valid = false
	o.reserve(len(svs))
	for k, v := range svs {
		if v.Alpha == 0 {
			o.cfg.log.Warn("init: dropping zero coefficient", slog.Int("id", v.ID))

			continue
		}
		if err := o.cache.SwapPositionWithID(o.l, v.ID); err != nil {
			return solverErrorf("Init", err)
		}
		y := math.Copysign(1, v.Alpha)
		cmin, cmax := o.box(y)
		e := entry{alpha: v.Alpha, cmin: cmin, cmax: cmax, b: y, kdiag: math.NaN()}
		if g != nil {
			e.g = g[k]
		}
		o.ent[o.l] = e
		o.l++
	}
	o.s = o.l
	if g != nil {
		return nil
	}
	o.s = 0
	if err := o.unshrinkFromRows(); err != nil {
		return solverErrorf("Init", err)
	}
	o.s = o.l

	return nil
}
