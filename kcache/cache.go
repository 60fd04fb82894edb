// SPDX-License-Identifier: MIT

// Package kcache - row storage, permutation tables & the LRU budget.
//
// Purpose:
//   - Keep one row per example id; column p of any row is K(id, r2i[p]).
//   - Serve a value from any cached row of either id, in this cache or a buddy, before calling the kernel.
//   - Bound resident row data by a byte budget, evicting least recently used rows first.
//
// Invariants:
//   - i2r and r2i are inverse permutations of [0, Capacity()).
//   - A row is linked in the LRU list iff it holds at least one valid column.
//   - CurrentSize() == 8 * Σ len(row data); the diagonal is not counted.
//   - The row returned by QueryRow is never evicted by that call, so the budget may be exceeded briefly.
//
// Complexity quicksheet:
//   - Query: O(1) on a hit; QueryRow: O(n - StatusRow) kernel calls; DiscardRow/DropRow: O(1).
//   - Swaps: O(resident rows) per call (see swap.go); Shuffle: one pass over resident rows.

package kcache

import "log/slog"

// Cache holds kernel rows for example ids, with columns ordered by a
// permutation of positions. The zero value is not usable; call New.
type Cache struct {
	kernel *Kernel

	rows []rowStore // by example id
	i2r  []int      // id -> position
	r2i  []int      // position -> id
	lru  rowList    // rows holding data, most recently used first

	maxSize int64
	curSize int64
	over    bool // budget crossing already logged

	peers    *peerGroup
	attached bool
	closed   bool

	log     *slog.Logger
	metrics *Metrics
}

// New creates an empty cache on kernel k: zero capacity, no rows, a peer
// group containing only itself, and the DefaultMaximumSize budget unless
// overridden.
func New(k *Kernel, opts ...Option) (*Cache, error) {
	if k == nil {
		return nil, cacheErrorf("New", ErrNilKernel)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache{
		kernel:  k,
		maxSize: o.maxSize,
		log:     o.logger,
		metrics: o.metrics,
	}
	c.peers = &peerGroup{members: []*Cache{c}}
	c.lru.grow(0)

	return c, nil
}

// Kernel returns the kernel the cache was built on.
func (c *Cache) Kernel() *Kernel { return c.kernel }

// Capacity returns the number of ids (and positions) currently addressable
// without growing.
func (c *Cache) Capacity() int { return len(c.i2r) }

// grow makes ids and positions [0, n) addressable. Capacity doubles from
// minCapacity; new ids start at the identical position.
func (c *Cache) grow(n int) {
	ol := len(c.i2r)
	if n <= ol {
		return
	}
	nl := max(minCapacity, ol)
	for nl < n {
		nl += nl
	}
	for i := ol; i < nl; i++ {
		c.i2r = append(c.i2r, i)
		c.r2i = append(c.r2i, i)
	}
	rows := make([]rowStore, nl)
	copy(rows, c.rows)
	c.rows = rows
	c.lru.grow(nl)
}

// eval calls the kernel function.
func (c *Cache) eval(i, j int) float64 {
	c.metrics.kernelEval()

	return c.kernel.Eval(i, j)
}

// lookup answers K(i,j) from this cache alone, without touching the LRU order.
func (c *Cache) lookup(i, j int) (float64, bool) {
	n := len(c.i2r)
	if i >= n || j >= n {
		return 0, false
	}
	ri := &c.rows[i]
	if p := c.i2r[j]; p < len(ri.data) {
		return ri.data[p], true
	}
	if i == j && ri.touched {
		return ri.diag, true
	}
	if p := c.i2r[i]; p < len(c.rows[j].data) {
		return c.rows[j].data[p], true
	}

	return 0, false
}

// query answers K(i,j) from this cache, then from any buddy, then from the kernel.
func (c *Cache) query(i, j int) float64 {
	if v, ok := c.lookup(i, j); ok {
		return v
	}
	for _, m := range c.peers.members {
		if m == c {
			continue
		}
		if v, ok := m.lookup(i, j); ok {
			c.metrics.buddyHit()
			return v
		}
	}

	return c.eval(i, j)
}

// Query returns K(i,j), served from any cached row of i or j in this cache or
// a buddy when possible. It never changes the cache geometry.
func (c *Cache) Query(i, j int) (float64, error) {
	if c.closed {
		return 0, cacheErrorf("Query", ErrClosed)
	}
	if i < 0 || j < 0 {
		return 0, cacheErrorf("Query", ErrOutOfRange)
	}

	return c.query(i, j), nil
}

// QueryRow ensures the row of id i holds at least n valid columns and returns
// them: row[p] == K(i, IDAt(p)) for p < n. Missing columns are computed
// through Query. The row becomes the most recently used one and a purge pass
// runs; the returned row itself is never evicted by this call.
//
// The returned slice aliases cache storage: it stays readable after later
// calls, but swaps may rewrite its values. Re-query after reordering.
func (c *Cache) QueryRow(i, n int) ([]float64, error) {
	if c.closed {
		return nil, cacheErrorf("QueryRow", ErrClosed)
	}
	if i < 0 || n < 0 {
		return nil, cacheErrorf("QueryRow", ErrOutOfRange)
	}
	if i >= len(c.i2r) || n > len(c.i2r) {
		c.grow(max(i+1, n))
	}
	r := &c.rows[i]
	if n == 0 {
		return r.data[:0:0], nil
	}
	if n <= len(r.data) {
		c.metrics.rowHit()
		c.lru.pushFront(i)

		return r.data[:n:n], nil
	}

	c.metrics.rowMiss()
	if !r.touched {
		r.diag = c.eval(i, i)
		r.touched = true
	}
	old := len(r.data)
	buf := r.reserve(n)
	for p := old; p < n; p++ {
		buf[p] = c.query(c.r2i[p], i)
	}
	r.data = buf
	c.curSize += int64(n-old) * valueSize
	c.metrics.resident(int64(n-old) * valueSize)
	c.lru.pushFront(i)
	c.purge(i)

	return r.data[:n:n], nil
}

// StatusRow returns the number of valid cached columns of id i.
func (c *Cache) StatusRow(i int) int {
	if i < 0 || i >= len(c.rows) {
		return 0
	}

	return len(c.rows[i].data)
}

// DiscardRow moves the row of id i to the least recently used end, so it is
// the first to go when the budget is exceeded. Its data is kept.
func (c *Cache) DiscardRow(i int) {
	if i < 0 || i >= len(c.rows) || !c.lru.linked(i) {
		return
	}
	c.lru.pushBack(i)
}

// DropRow releases the cached columns of id i at once. The diagonal value
// is kept; the next QueryRow recomputes the columns.
func (c *Cache) DropRow(i int) {
	if i < 0 || i >= len(c.rows) || !c.lru.linked(i) {
		return
	}
	c.truncateRow(i, 0)
}

// SetMaximumSize changes the budget and purges immediately.
func (c *Cache) SetMaximumSize(bytes int64) error {
	if bytes < 0 {
		return cacheErrorf("SetMaximumSize", ErrBadSize)
	}
	c.maxSize = bytes
	c.purge(-1)

	return nil
}

// MaximumSize returns the budget in bytes.
func (c *Cache) MaximumSize() int64 { return c.maxSize }

// CurrentSize returns the bytes of cached row data. It may exceed the budget
// while the only remaining row is the one in use.
func (c *Cache) CurrentSize() int64 { return c.curSize }

// IDToRow returns the id -> position table with length at least n.
// The slice is owned by the cache: do not modify it, and fetch it again after
// any call that may grow the cache.
func (c *Cache) IDToRow(n int) []int {
	if c.closed {
		return nil
	}
	c.grow(n)

	return c.i2r
}

// RowToID returns the position -> id table with length at least n.
// The same ownership rules as IDToRow apply.
func (c *Cache) RowToID(n int) []int {
	if c.closed {
		return nil
	}
	c.grow(n)

	return c.r2i
}

// PositionOf returns the current position of id.
func (c *Cache) PositionOf(id int) (int, error) {
	if c.closed {
		return 0, cacheErrorf("PositionOf", ErrClosed)
	}
	if id < 0 {
		return 0, cacheErrorf("PositionOf", ErrOutOfRange)
	}
	c.grow(id + 1)

	return c.i2r[id], nil
}

// IDAt returns the id at position pos.
func (c *Cache) IDAt(pos int) (int, error) {
	if c.closed {
		return 0, cacheErrorf("IDAt", ErrClosed)
	}
	if pos < 0 {
		return 0, cacheErrorf("IDAt", ErrOutOfRange)
	}
	c.grow(pos + 1)

	return c.r2i[pos], nil
}

// Attach claims the cache for one solver.
func (c *Cache) Attach() error {
	if c.closed {
		return cacheErrorf("Attach", ErrClosed)
	}
	if c.attached {
		return cacheErrorf("Attach", ErrAttached)
	}
	c.attached = true

	return nil
}

// Detach releases the claim taken by Attach.
func (c *Cache) Detach() { c.attached = false }

// Close drops every row and leaves the peer group. Further use returns ErrClosed.
func (c *Cache) Close() {
	if c.closed {
		return
	}
	c.peers.remove(c)
	c.metrics.resident(-c.curSize)
	c.rows, c.i2r, c.r2i = nil, nil, nil
	c.lru = rowList{}
	c.curSize = 0
	c.closed = true
}

// truncateRow keeps the first n columns of id k, unlinking the row when empty.
func (c *Cache) truncateRow(k, n int) {
	r := &c.rows[k]
	if n <= 0 {
		c.lru.unlink(k)
	}
	if n >= len(r.data) {
		return
	}
	freed := r.bytes()
	r.truncate(n)
	freed -= r.bytes()
	c.curSize -= freed
	c.metrics.resident(-freed)
}

// purge evicts rows from the least recently used end until the budget holds
// or only hot remains.
func (c *Cache) purge(hot int) {
	for c.curSize > c.maxSize {
		k := c.lru.back()
		if k < 0 || k == hot {
			break
		}
		c.log.Debug("kcache: evicting row", "id", k, "columns", len(c.rows[k].data))
		c.truncateRow(k, 0)
		c.metrics.eviction()
	}
	over := c.curSize > c.maxSize
	if over && !c.over {
		c.log.Warn("kcache: resident rows exceed budget",
			"current_bytes", c.curSize, "maximum_bytes", c.maxSize)
	}
	c.over = over
}
