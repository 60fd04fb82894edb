// SPDX-License-Identifier: MIT

// Package lasvm - shared solver state, extremes & read-only accessors.
//
// Purpose:
//   - Hold the dual problem over positions [0, l) of the cache: α, box [cmin, cmax], linear term b, gradient g.
//   - Keep positions [0, s) active and [s, l) shrunk; a swap moves an entry and its cache position together.
//   - Answer Bias, Objective, Gap and Predict for both Online and Batch.
//
// Invariants:
//   - g[p] = b[p] - Σ_q α[q]·K(p, q) for every active p, and for all p after unshrink.
//   - cmin[p] <= α[p] <= cmax[p]; with the equality constraint Σ α is constant.
//   - Position p of the cache holds the id of entry p at all times.
//   - gbar tracks Σ over bound, non-zero α only, and only when the gradient baseline is on.
//
// Numeric policy:
//   - Curvature below -tol·max(1, |Kii|+|Kjj|) is ErrNotPSD; NaN anywhere is ErrNonFinite.
//   - Steps that reach a bound land on it exactly, so counted() compares with ==.

package lasvm

import (
	"math"

	"github.com/katalvlaran/lvsvm/kcache"
)

// entry is the per-position state of one coordinate of the dual problem.
type entry struct {
	alpha float64 // signed coefficient
	cmin  float64
	cmax  float64
	g     float64 // b - Kα, valid for positions < s
	b     float64 // linear term; the label for a classifier
	gbar  float64 // Σ over bound, non-zero α_j of α_j K(j,·)
	kdiag float64 // K(i,i), NaN until needed
}

func (e *entry) atUpper(eps float64) bool { return e.alpha >= e.cmax-eps }

func (e *entry) atLower(eps float64) bool { return e.alpha <= e.cmin+eps }

// counted reports whether α contributes to the gradient baseline.
func (e *entry) counted() bool {
	return e.alpha != 0 && (e.alpha == e.cmin || e.alpha == e.cmax)
}

// contribution is the coefficient as seen by the gradient baseline.
func (e *entry) contribution() float64 {
	if e.counted() {
		return e.alpha
	}

	return 0
}

// extremes caches the most violating coordinates of the active set.
type extremes struct {
	valid      bool
	gmin, gmax float64
	imin, imax int // -1 when no coordinate may move in that direction
}

// solver is the coordinate-ascent core shared by Online and Batch.
//
// Positions [0,s) are active, [s,l) are shrunk (gradients stale), and
// positions >= l are outside the problem. Every reordering goes through swap
// so that entries and the cache permutation move together.
type solver struct {
	cache *kcache.Cache
	cfg   config
	ent   []entry
	l, s  int
	ext   extremes
	fresh bool // gradients of [0,l) match α and b once unshrunk
}

func newSolver(cache *kcache.Cache, cfg config) solver {
	return solver{cache: cache, cfg: cfg, fresh: true}
}

// reserve makes room for n entries.
func (sv *solver) reserve(n int) {
	if n <= len(sv.ent) {
		return
	}
	grow := max(n, 2*len(sv.ent), 16) - len(sv.ent)
	sv.ent = append(sv.ent, make([]entry, grow)...)
}

// id returns the example id held at position p.
func (sv *solver) id(p int) int {
	return sv.cache.RowToID(p + 1)[p]
}

// row returns the first n kernel values of the example at position p.
func (sv *solver) row(p, n int) ([]float64, error) {
	return sv.cache.QueryRow(sv.id(p), n)
}

// residentRow returns the row of position p when the cache already holds n
// columns of it, and nil otherwise.
func (sv *solver) residentRow(p, n int) []float64 {
	id := sv.id(p)
	if sv.cache.StatusRow(id) < n {
		return nil
	}
	row, err := sv.cache.QueryRow(id, n)
	if err != nil {
		return nil
	}

	return row
}

// diag returns K(i,i) for the example at position p.
func (sv *solver) diag(p int) (float64, error) {
	e := &sv.ent[p]
	if !math.IsNaN(e.kdiag) {
		return e.kdiag, nil
	}
	id := sv.id(p)
	v, err := sv.cache.Query(id, id)
	if err != nil {
		return 0, err
	}
	e.kdiag = v

	return v, nil
}

// swap exchanges positions p and q in both the entries and the cache.
func (sv *solver) swap(p, q int) error {
	if p == q {
		return nil
	}
	if err := sv.cache.SwapByPosition(p, q); err != nil {
		return err
	}
	sv.ent[p], sv.ent[q] = sv.ent[q], sv.ent[p]
	sv.ext.valid = false

	return nil
}

// extremes scans the active set for the largest gradient of a coordinate
// that may increase and the smallest of one that may decrease.
func (sv *solver) extremes() extremes {
	if sv.ext.valid {
		return sv.ext
	}
	x := extremes{valid: true, gmin: math.Inf(1), gmax: math.Inf(-1), imin: -1, imax: -1}
	eps := sv.cfg.epsKKT
	for p := 0; p < sv.s; p++ {
		e := &sv.ent[p]
		if e.g > x.gmax && !e.atUpper(eps) {
			x.gmax, x.imax = e.g, p
		}
		if e.g < x.gmin && !e.atLower(eps) {
			x.gmin, x.imin = e.g, p
		}
	}
	sv.ext = x

	return x
}

// thresholds returns the gradient levels beyond which a coordinate stuck at
// a bound cannot re-enter: in the equality mode the active extremes, in the
// single-coordinate mode the extremes widened to include zero.
func (sv *solver) thresholds() (lo, hi float64) {
	x := sv.extremes()
	if sv.cfg.sum {
		return x.gmin, x.gmax
	}

	return min(x.gmin, 0), max(x.gmax, 0)
}

// gap measures the KKT violation of the active set.
func (sv *solver) gap() float64 {
	x := sv.extremes()
	if sv.cfg.sum {
		if x.imax < 0 || x.imin < 0 {
			return 0
		}

		return x.gmax - x.gmin
	}
	v := max(x.gmax, -x.gmin)
	if math.IsInf(v, -1) {
		return 0
	}

	return v
}

// Len returns the number of examples in the problem.
func (sv *solver) Len() int { return sv.l }

// Gap returns the current KKT violation: gmax − gmin with the equality
// constraint, max(gmax, −gmin) without. Zero when no step is possible.
func (sv *solver) Gap() float64 { return sv.gap() }

// Bias returns the threshold b of the decision function Σ α_i K(i,x) − b,
// the midpoint of the extreme gradients. It is zero without the equality
// constraint.
func (sv *solver) Bias() float64 {
	if !sv.cfg.sum {
		return 0
	}
	x := sv.extremes()
	switch {
	case x.imax >= 0 && x.imin >= 0:
		return -(x.gmax + x.gmin) / 2
	case x.imax >= 0:
		return -x.gmax
	case x.imin >= 0:
		return -x.gmin
	}

	return 0
}

// Objective returns the dual objective W(α) = ½ Σ α_i (b_i + g_i).
func (sv *solver) Objective() float64 {
	var w float64
	for p := 0; p < sv.l; p++ {
		e := &sv.ent[p]
		w += e.alpha * (e.b + e.g)
	}

	return w / 2
}

// predict evaluates Σ α_j K(j,id) over the problem. Unless keep is set, a row
// that was not resident before the call is marked for early eviction.
func (sv *solver) predict(id int, keep bool) (float64, error) {
	if id < 0 {
		return 0, ErrOutOfRange
	}
	resident := sv.cache.StatusRow(id) >= sv.l
	row, err := sv.cache.QueryRow(id, sv.l)
	if err != nil {
		return 0, err
	}
	var f float64
	for p := 0; p < sv.l; p++ {
		if a := sv.ent[p].alpha; a != 0 {
			f += a * row[p]
		}
	}
	if !keep && !resident {
		sv.cache.DiscardRow(id)
	}

	return f - sv.Bias(), nil
}

// Predict returns the decision value Σ α_j K(j,id) − Bias for example id.
func (sv *solver) Predict(id int) (float64, error) {
	f, err := sv.predict(id, true)
	if err != nil {
		return 0, solverErrorf("Predict", err)
	}

	return f, nil
}

// PredictNoCache is Predict for one-off queries: a row computed only for this
// call is sent to the eviction end of the cache.
func (sv *solver) PredictNoCache(id int) (float64, error) {
	f, err := sv.predict(id, false)
	if err != nil {
		return 0, solverErrorf("PredictNoCache", err)
	}

	return f, nil
}

// SupportVector pairs an example id with its signed coefficient.
type SupportVector struct {
	ID    int
	Alpha float64
}

// SupportVectors returns the examples with a non-zero coefficient.
func (sv *solver) SupportVectors() []SupportVector {
	out := make([]SupportVector, 0, sv.l)
	for p := 0; p < sv.l; p++ {
		if a := sv.ent[p].alpha; a != 0 {
			out = append(out, SupportVector{ID: sv.id(p), Alpha: a})
		}
	}

	return out
}

// WorkingSet returns every example of the problem with its coefficient,
// zero coefficients included, in position order.
func (sv *solver) WorkingSet() []SupportVector {
	out := make([]SupportVector, sv.l)
	for p := range out {
		out[p] = SupportVector{ID: sv.id(p), Alpha: sv.ent[p].alpha}
	}

	return out
}

// Gradients returns the gradient components aligned with WorkingSet.
func (sv *solver) Gradients() []float64 {
	out := make([]float64, sv.l)
	for p := range out {
		out[p] = sv.ent[p].g
	}

	return out
}

// Close releases the cache claim taken at construction. The cache itself
// stays open.
func (sv *solver) Close() {
	if sv.cache != nil {
		sv.cache.Detach()
	}
}
