// SPDX-License-Identifier: MIT

package lasvm

import (
	"fmt"
	"math"
)

// checkCurvature rejects NaN and clearly negative curvature.
func (sv *solver) checkCurvature(curv, scale float64, p, q int) error {
	if math.IsNaN(curv) || math.IsInf(curv, 0) {
		return fmt.Errorf("%w: curvature %g at ids %d,%d", ErrNonFinite, curv, sv.id(p), sv.id(q))
	}
	if curv < -sv.cfg.psdTol*max(1, math.Abs(scale)) {
		return fmt.Errorf("%w: curvature %g at ids %d,%d", ErrNotPSD, curv, sv.id(p), sv.id(q))
	}

	return nil
}

// stepPair moves weight from position imin to position imax, keeping Σα
// fixed. It reports whether a step was committed and whether a box bound,
// rather than the Newton optimum, limited it.
func (sv *solver) stepPair(imax, imin int) (moved, hit bool, err error) {
	if imax == imin {
		return false, false, nil
	}
	emax, emin := &sv.ent[imax], &sv.ent[imin]
	if emax.g <= emin.g {
		return false, false, nil
	}
	rmax, err := sv.row(imax, sv.s)
	if err != nil {
		return false, false, err
	}
	rmin, err := sv.row(imin, sv.s)
	if err != nil {
		return false, false, err
	}
	curv := rmax[imax] + rmin[imin] - 2*rmax[imin]
	if err = sv.checkCurvature(curv, rmax[imax]+rmin[imin], imax, imin); err != nil {
		return false, false, err
	}

	up, down := emax.cmax-emax.alpha, emin.alpha-emin.cmin
	step, hit := min(up, down), true
	if curv >= sv.cfg.tau {
		if newton := (emax.g - emin.g) / curv; newton < step {
			step, hit = newton, false
		}
	}
	if !(step > 0) {
		return false, false, nil
	}

	oldMax, oldMin := emax.alpha, emin.alpha
	emax.alpha += step
	emin.alpha -= step
	if hit {
		if up <= down {
			emax.alpha = emax.cmax
		}
		if down <= up {
			emin.alpha = emin.cmin
		}
	}
	for p := 0; p < sv.s; p++ {
		sv.ent[p].g -= step * (rmax[p] - rmin[p])
	}
	if err = sv.updateBaseline(imax, oldMax); err != nil {
		return true, hit, err
	}
	if err = sv.updateBaseline(imin, oldMin); err != nil {
		return true, hit, err
	}
	sv.ext.valid = false
	sv.cfg.metrics.step()

	return true, hit, nil
}

// stepSingle moves the coefficient at position p along its gradient.
func (sv *solver) stepSingle(p int) (moved, hit bool, err error) {
	e := &sv.ent[p]
	var bound float64
	switch {
	case e.g > 0:
		bound = e.cmax
	case e.g < 0:
		bound = e.cmin
	default:
		return false, false, nil
	}
	row, err := sv.row(p, sv.s)
	if err != nil {
		return false, false, err
	}
	curv := row[p]
	if err = sv.checkCurvature(curv, curv, p, p); err != nil {
		return false, false, err
	}

	step, hit := bound-e.alpha, true
	if curv >= sv.cfg.tau {
		if newton := e.g / curv; math.Abs(newton) < math.Abs(step) {
			step, hit = newton, false
		}
	}
	if step == 0 || math.IsNaN(step) {
		return false, false, nil
	}

	old := e.alpha
	e.alpha += step
	if hit {
		e.alpha = bound
	}
	for q := 0; q < sv.s; q++ {
		sv.ent[q].g -= step * row[q]
	}
	if err = sv.updateBaseline(p, old); err != nil {
		return true, hit, err
	}
	sv.ext.valid = false
	sv.cfg.metrics.step()

	return true, hit, nil
}

// stepOnce selects the most violating coordinate(s) of the active set and
// steps. It returns false without touching anything when the gap is below
// epsgr.
func (sv *solver) stepOnce(epsgr float64) (bool, error) {
	gap := sv.gap()
	sv.cfg.metrics.gap(gap)
	if gap < epsgr || gap <= 0 {
		return false, nil
	}
	if sv.cfg.sum {
		imax, imin, err := sv.selectPair()
		if err != nil {
			return false, err
		}
		moved, _, err := sv.stepPair(imax, imin)

		return moved, err
	}

	x := sv.extremes()
	p := x.imax
	if p < 0 || (x.imin >= 0 && -x.gmin > x.gmax) {
		p = x.imin
	}
	moved, _, err := sv.stepSingle(p)

	return moved, err
}

// updateBaseline keeps gbar in step with the coefficient at position p,
// previously old under the same bounds.
func (sv *solver) updateBaseline(p int, old float64) error {
	e := &sv.ent[p]
	var before float64
	if old != 0 && (old == e.cmin || old == e.cmax) {
		before = old
	}

	return sv.shiftBaseline(p, before)
}

// shiftBaseline replaces the baseline contribution before of position p by
// its current one. Only bound, non-zero coefficients contribute.
func (sv *solver) shiftBaseline(p int, before float64) error {
	if !sv.cfg.baseline {
		return nil
	}
	delta := sv.ent[p].contribution() - before
	if delta == 0 {
		return nil
	}
	row, err := sv.row(p, sv.l)
	if err != nil {
		return err
	}
	for q := 0; q < sv.l; q++ {
		sv.ent[q].gbar += delta * row[q]
	}

	return nil
}
