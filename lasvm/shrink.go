// SPDX-License-Identifier: MIT

package lasvm

import (
	"context"
	"log/slog"
)

// shrinkPeriod is the number of steps between shrink passes.
func (sv *solver) shrinkPeriod() int {
	if sv.cfg.shrinkPeriod > 0 {
		return sv.cfg.shrinkPeriod
	}

	return max(1, min(sv.l, maxShrinkPeriod))
}

// shrink moves coordinates stuck at a bound beyond the active extremes to the
// shrunk range [s,l). It returns how many were moved.
func (sv *solver) shrink() (int, error) {
	x := sv.extremes()
	if sv.cfg.sum && (x.imax < 0 || x.imin < 0) {
		return 0, nil
	}
	lo, hi := sv.thresholds()
	eps := sv.cfg.epsKKT
	n := 0
	for p := 0; p < sv.s; {
		e := &sv.ent[p]
		if (e.atUpper(eps) && e.g > hi) || (e.atLower(eps) && e.g < lo) {
			sv.s--
			if err := sv.swap(p, sv.s); err != nil {
				return n, err
			}
			n++

			continue
		}
		p++
	}
	sv.ext.valid = false
	sv.cfg.metrics.shrunk(n)

	return n, nil
}

// unshrink recomputes the gradients of [s,l) and makes the whole problem
// active again.
func (sv *solver) unshrink() error {
	if sv.s == sv.l {
		return nil
	}
	var err error
	if sv.cfg.baseline {
		err = sv.unshrinkFromBaseline()
	} else {
		err = sv.unshrinkFromRows()
	}
	if err != nil {
		sv.fresh = false

		return err
	}
	sv.cfg.log.Debug("unshrink", slog.Int("shrunk", sv.l-sv.s), slog.Int("l", sv.l))
	sv.s = sv.l
	sv.ext.valid = false
	sv.cfg.metrics.unshrink()

	return nil
}

// unshrinkFromRows rebuilds each stale gradient from its own row. Rows that
// were not resident before are sent to the eviction end afterwards.
func (sv *solver) unshrinkFromRows() error {
	for p := sv.s; p < sv.l; p++ {
		id := sv.id(p)
		resident := sv.cache.StatusRow(id) >= sv.l
		row, err := sv.cache.QueryRow(id, sv.l)
		if err != nil {
			return err
		}
		g := sv.ent[p].b
		for q := 0; q < sv.l; q++ {
			if a := sv.ent[q].alpha; a != 0 {
				g -= a * row[q]
			}
		}
		sv.ent[p].g = g
		if !resident {
			sv.cache.DiscardRow(id)
		}
	}

	return nil
}

// unshrinkFromBaseline rebuilds stale gradients from gbar plus the rows of the
// free coefficients.
func (sv *solver) unshrinkFromBaseline() error {
	for p := sv.s; p < sv.l; p++ {
		e := &sv.ent[p]
		e.g = e.b - e.gbar
	}
	for q := 0; q < sv.l; q++ {
		e := &sv.ent[q]
		if e.alpha == 0 || e.counted() {
			continue
		}
		row, err := sv.row(q, sv.l)
		if err != nil {
			return err
		}
		for p := sv.s; p < sv.l; p++ {
			sv.ent[p].g -= e.alpha * row[p]
		}
	}

	return nil
}

// evict drops from the problem every zero coefficient that sits at a bound
// with a gradient pointing out of its box beyond the extremes: it can never
// leave zero again. Requires s == l.
func (sv *solver) evict() (int, error) {
	lo, hi := sv.thresholds()
	n := 0
	for p := 0; p < sv.l; {
		e := &sv.ent[p]
		if e.alpha == 0 && ((e.g >= hi && e.cmax <= 0) || (e.g <= lo && e.cmin >= 0)) {
			sv.l--
			if err := sv.swap(p, sv.l); err != nil {
				sv.s = sv.l

				return n, err
			}
			n++

			continue
		}
		p++
	}
	sv.s = sv.l
	sv.ext.valid = false
	sv.cfg.metrics.evicted(n)

	return n, nil
}

// optimize steps until the gap over the whole problem is below epsgr,
// shrinking periodically, and returns the number of steps taken. On error
// it still tries to leave every gradient current.
func (sv *solver) optimize(ctx context.Context, epsgr float64) (int, error) {
	iter := 0
	period := sv.shrinkPeriod()
	for {
		converged := false
		for counter := 0; ; counter++ {
			if iter%cancelCheckPeriod == 0 {
				if err := ctx.Err(); err != nil {
					return iter, sv.abort(err)
				}
			}
			if sv.cfg.maxIter > 0 && iter >= sv.cfg.maxIter {
				return iter, sv.abort(ErrIterationLimit)
			}
			moved, err := sv.stepOnce(epsgr)
			if err != nil {
				return iter, sv.abort(err)
			}
			if !moved {
				converged = true

				break
			}
			iter++
			if sv.cfg.shrinking && counter+1 >= period {
				break
			}
		}
		if converged {
			if sv.s == sv.l {
				return iter, nil
			}
			if err := sv.unshrink(); err != nil {
				return iter, err
			}

			continue
		}
		n, err := sv.shrink()
		if err != nil {
			return iter, sv.abort(err)
		}
		if n > 0 {
			sv.cfg.log.Debug("shrink", slog.Int("shrunk", n), slog.Int("active", sv.s), slog.Int("iter", iter))
		}
	}
}

// abort restores full activity after a failed or interrupted solve.
func (sv *solver) abort(err error) error {
	if uerr := sv.unshrink(); uerr != nil {
		sv.cfg.log.Warn("unshrink after abort failed", slog.Any("err", uerr))
	}

	return err
}
