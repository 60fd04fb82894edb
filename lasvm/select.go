// SPDX-License-Identifier: MIT

package lasvm

// selectPair returns the positions (imax, imin) of the next paired step.
//
// Without the maximum-gain heuristic these are the extreme-gradient
// coordinates. With it, each extreme whose row is already resident in the
// cache is kept fixed and paired with the partner giving the largest
// unclipped gain d²/curvature; when neither row is resident the plain rule
// applies.
func (sv *solver) selectPair() (int, int, error) {
	x := sv.extremes()
	if !sv.cfg.maxGain || x.imax < 0 || x.imin < 0 {
		return x.imax, x.imin, nil
	}

	eps := sv.cfg.epsKKT
	bi, bj, best := x.imax, x.imin, -1.0
	if row := sv.residentRow(x.imax, sv.s); row != nil {
		kii := row[x.imax]
		for j := 0; j < sv.s; j++ {
			e := &sv.ent[j]
			if e.atLower(eps) || e.g >= x.gmax {
				continue
			}
			kjj, err := sv.diag(j)
			if err != nil {
				return -1, -1, err
			}
			if gain := sv.gain(x.gmax-e.g, kii+kjj-2*row[j]); gain > best {
				bi, bj, best = x.imax, j, gain
			}
		}
	}
	if row := sv.residentRow(x.imin, sv.s); row != nil {
		kjj := row[x.imin]
		for i := 0; i < sv.s; i++ {
			e := &sv.ent[i]
			if e.atUpper(eps) || e.g <= x.gmin {
				continue
			}
			kii, err := sv.diag(i)
			if err != nil {
				return -1, -1, err
			}
			if gain := sv.gain(e.g-x.gmin, kii+kjj-2*row[i]); gain > best {
				bi, bj, best = i, x.imin, gain
			}
		}
	}

	return bi, bj, nil
}

// gain is the objective increase of an unclipped Newton step over gradient
// difference d, with curvature floored at tau.
func (sv *solver) gain(d, curv float64) float64 {
	return d * d / max(curv, sv.cfg.tau)
}
