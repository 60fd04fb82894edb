// SPDX-License-Identifier: MIT

package kcache

// rowList is an array-backed doubly linked list over row ids, ordered from
// most recently used (front) to least recently used (back).
// Slot 0 is the sentinel; id k lives in slot k+1. An unlinked slot points to itself.
type rowList struct {
	next []int
	prev []int
}

// grow makes room for ids [0, n).
func (l *rowList) grow(n int) {
	if len(l.next) == 0 {
		l.next = append(l.next, 0)
		l.prev = append(l.prev, 0)
	}
	for s := len(l.next); s <= n; s++ {
		l.next = append(l.next, s)
		l.prev = append(l.prev, s)
	}
}

// linked reports whether id k is currently in the list.
func (l *rowList) linked(k int) bool {
	s := k + 1

	return l.next[s] != s
}

// front returns the most recently used id, or -1 on an empty list.
func (l *rowList) front() int { return l.next[0] - 1 }

// back returns the least recently used id, or -1 on an empty list.
func (l *rowList) back() int { return l.prev[0] - 1 }

// after returns the id following k towards the back, or -1 at the end.
func (l *rowList) after(k int) int { return l.next[k+1] - 1 }

// unlink removes id k; unlinking an unlinked id is a no-op.
func (l *rowList) unlink(k int) {
	s := k + 1
	l.next[l.prev[s]] = l.next[s]
	l.prev[l.next[s]] = l.prev[s]
	l.next[s], l.prev[s] = s, s
}

// pushFront moves id k to the most recently used end.
func (l *rowList) pushFront(k int) {
	l.unlink(k)
	s := k + 1
	l.prev[s] = 0
	l.next[s] = l.next[0]
	l.prev[l.next[0]] = s
	l.next[0] = s
}

// pushBack moves id k to the least recently used end.
func (l *rowList) pushBack(k int) {
	l.unlink(k)
	s := k + 1
	l.next[s] = 0
	l.prev[s] = l.prev[0]
	l.next[l.prev[0]] = s
	l.prev[0] = s
}
