// SPDX-License-Identifier: MIT

package kcache

import "slices"

// peerGroup lists caches built on one kernel that answer each other's
// misses. Every member points at the same group; a merge is a union.
type peerGroup struct {
	members []*Cache
}

func (g *peerGroup) remove(c *Cache) {
	g.members = slices.DeleteFunc(g.members, func(m *Cache) bool { return m == c })
	c.peers = &peerGroup{}
}

// SetBuddy merges the peer groups of c and other. Both must be built on the
// same *Kernel. Linking caches that are already buddies is a no-op.
func (c *Cache) SetBuddy(other *Cache) error {
	if other == nil {
		return cacheErrorf("SetBuddy", ErrNilCache)
	}
	if c.closed || other.closed {
		return cacheErrorf("SetBuddy", ErrClosed)
	}
	if c.peers == other.peers {
		return nil
	}
	if c.kernel != other.kernel {
		return cacheErrorf("SetBuddy", ErrKernelMismatch)
	}
	g := c.peers
	for _, m := range other.peers.members {
		m.peers = g
		g.members = append(g.members, m)
	}

	return nil
}

// Buddies returns the number of other caches in the peer group.
func (c *Cache) Buddies() int {
	if c.closed {
		return 0
	}

	return len(c.peers.members) - 1
}
