// SPDX-License-Identifier: MIT

package kcache

import "slices"

// SwapByPosition exchanges the ids at positions r1 and r2.
func (c *Cache) SwapByPosition(r1, r2 int) error {
	if c.closed {
		return cacheErrorf("SwapByPosition", ErrClosed)
	}
	if r1 < 0 || r2 < 0 {
		return cacheErrorf("SwapByPosition", ErrOutOfRange)
	}
	c.grow(1 + max(r1, r2))
	c.swap(c.r2i[r1], c.r2i[r2], r1, r2)

	return nil
}

// SwapByID exchanges the positions of ids i1 and i2.
func (c *Cache) SwapByID(i1, i2 int) error {
	if c.closed {
		return cacheErrorf("SwapByID", ErrClosed)
	}
	if i1 < 0 || i2 < 0 {
		return cacheErrorf("SwapByID", ErrOutOfRange)
	}
	c.grow(1 + max(i1, i2))
	c.swap(i1, i2, c.i2r[i1], c.i2r[i2])

	return nil
}

// SwapPositionWithID moves id i to position r, and the id previously at r to
// the old position of i.
func (c *Cache) SwapPositionWithID(r, i int) error {
	if c.closed {
		return cacheErrorf("SwapPositionWithID", ErrClosed)
	}
	if r < 0 || i < 0 {
		return cacheErrorf("SwapPositionWithID", ErrOutOfRange)
	}
	c.grow(1 + max(r, i))
	c.swap(c.r2i[r], i, r, c.i2r[i])

	return nil
}

// swap exchanges positions r1 and r2, held by ids i1 and i2, and repairs every
// cached row long enough to see either column so that it still reads in the
// new column order.
func (c *Cache) swap(i1, i2, r1, r2 int) {
	if r1 == r2 {
		return
	}
	for k := c.lru.front(); k >= 0; {
		next := c.lru.after(k)
		d := c.rows[k].data
		n := len(d)
		switch {
		case r1 < n && r2 < n:
			d[r1], d[r2] = d[r2], d[r1]
		case r1 < n:
			c.repair(k, r1, r2, i2)
		case r2 < n:
			c.repair(k, r2, r1, i1)
		}
		k = next
	}
	c.r2i[r1], c.r2i[r2] = i2, i1
	c.i2r[i1], c.i2r[i2] = r2, r1
}

// repair fills column at of row k, which is about to hold id other (currently
// at position from). The value comes from the row's diagonal, from the row of
// other by symmetry, or the row is truncated to drop the column.
func (c *Cache) repair(k, at, from, other int) {
	rr := c.i2r[k]
	d := c.rows[k].data
	if rr == from {
		d[at] = c.rows[k].diag
		return
	}
	// Column at of the other row may already have been rewritten by this swap.
	if a := c.rows[other].data; rr < len(a) && rr != at {
		d[at] = a[rr]
		return
	}
	c.truncateRow(k, at)
}

// Shuffle moves the distinct ids of ids to positions 0..k-1 in ascending
// order, keeping the relative order of every other id behind them. ids is
// sorted and deduplicated in place; its first k entries are the kept ids.
// Cached rows are regathered to the new order, keeping only the leading
// columns that remain known (a row's own column is served from its diagonal).
func (c *Cache) Shuffle(ids []int) (int, error) {
	if c.closed {
		return 0, cacheErrorf("Shuffle", ErrClosed)
	}
	for _, id := range ids {
		if id < 0 {
			return 0, cacheErrorf("Shuffle", ErrOutOfRange)
		}
	}
	slices.Sort(ids)
	kept := slices.Compact(ids)
	if len(kept) == 0 {
		return 0, nil
	}
	c.grow(kept[len(kept)-1] + 1)

	n := len(c.i2r)
	front := make([]bool, n)
	r2i := make([]int, 0, n)
	for _, id := range kept {
		front[id] = true
		r2i = append(r2i, id)
	}
	for _, id := range c.r2i {
		if !front[id] {
			r2i = append(r2i, id)
		}
	}
	i2r := make([]int, n)
	for p, id := range r2i {
		i2r[id] = p
	}

	for k := c.lru.front(); k >= 0; {
		next := c.lru.after(k)
		c.regather(k, kept)
		k = next
	}
	c.i2r, c.r2i = i2r, r2i

	return len(kept), nil
}

// regather rewrites row k so that column m holds K(k, order[m]), stopping at
// the first value the row cannot supply. Uses the permutation before Shuffle.
func (c *Cache) regather(k int, order []int) {
	r := &c.rows[k]
	old := len(r.data)
	m := 0
	for m < len(order) {
		q := order[m]
		if c.i2r[q] >= old && q != k {
			break
		}
		m++
	}
	if m == 0 {
		c.truncateRow(k, 0)
		return
	}
	buf := make([]float64, m)
	for p, q := range order[:m] {
		if pos := c.i2r[q]; pos < old {
			buf[p] = r.data[pos]
		} else {
			buf[p] = r.diag
		}
	}
	r.data = buf
	c.curSize += int64(m-old) * valueSize
	c.metrics.resident(int64(m-old) * valueSize)
}
