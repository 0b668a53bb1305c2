// Package hierarchy composes independent cache models into multi-level
// lookups. Each level is a complete cache model with its own configuration
// and statistics; the hierarchy only decides which accesses reach which
// level.
package hierarchy

import (
	"github.com/sarchlab/dcachesim/cache"
)

// A TwoLevel forwards every line that misses in the first-level cache to
// the second-level cache. The two levels are independent models; nothing
// enforces inclusion between them. Hit and miss counts accumulate in each
// level's own statistics.
type TwoLevel struct {
	l1 *cache.Cache
	l2 *cache.Cache
}

// NewTwoLevel builds a hierarchy over the given levels.
func NewTwoLevel(l1, l2 *cache.Cache) *TwoLevel {
	if l1 == nil || l2 == nil {
		panic("both cache levels must be provided")
	}

	return &TwoLevel{l1: l1, l2: l2}
}

// L1 returns the first-level cache.
func (h *TwoLevel) L1() *cache.Cache {
	return h.l1
}

// L2 returns the second-level cache.
func (h *TwoLevel) L2() *cache.Cache {
	return h.l2
}

// AccessSingleLine classifies a non-spanning reference against the first
// level and, when it misses there, against the second level. The return
// value is the first-level result.
func (h *TwoLevel) AccessSingleLine(addr uint64, kind cache.AccessKind) bool {
	hit := h.l1.AccessSingleLine(addr, kind)
	if !hit {
		h.l2.AccessSingleLine(addr, kind)
	}

	return hit
}

// Access classifies a reference spanning [addr, addr+size), walking the
// range one first-level line at a time. It returns true only if every
// covered line hit in the first level.
func (h *TwoLevel) Access(addr uint64, size uint32, kind cache.AccessKind) bool {
	if size < 1 {
		panic("access size must be at least 1")
	}

	lineSize := h.l1.LineSize()
	highAddr := addr + uint64(size)
	notLineMask := ^(lineSize - 1)
	allHit := true

	for {
		hit := h.AccessSingleLine(addr, kind)
		allHit = allHit && hit

		addr = (addr & notLineMask) + lineSize
		if addr >= highAddr {
			break
		}
	}

	return allHit
}
