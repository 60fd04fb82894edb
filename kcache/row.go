// SPDX-License-Identifier: MIT

package kcache

// valueSize is the resident cost of one cached kernel value, in bytes.
const valueSize = 8

// rowStore is one example's cached row: the valid leading columns under the
// current permutation and the diagonal value, kept once computed.
type rowStore struct {
	data    []float64 // len(data) is the number of valid columns
	diag    float64
	touched bool // diag holds K(id,id)
}

// bytes returns the accounted size of the valid columns.
func (r *rowStore) bytes() int64 { return int64(len(r.data)) * valueSize }

// reserve returns a buffer of length n whose prefix holds the valid columns.
// The row itself keeps its old length until the caller installs the buffer.
func (r *rowStore) reserve(n int) []float64 {
	if n <= cap(r.data) {
		return r.data[:n]
	}
	c := 2 * cap(r.data)
	if c < n {
		c = n
	}
	buf := make([]float64, n, c)
	copy(buf, r.data)

	return buf
}

// truncate keeps the first n columns. Large slack is released by copying.
func (r *rowStore) truncate(n int) {
	if n >= len(r.data) {
		return
	}
	switch {
	case n <= 0:
		r.data = nil
	case n < cap(r.data)/2:
		buf := make([]float64, n)
		copy(buf, r.data)
		r.data = buf
	default:
		r.data = r.data[:n]
	}
}
