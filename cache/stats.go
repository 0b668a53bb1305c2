package cache

import (
	"fmt"
	"strings"
)

// An AccessKind tells whether a memory reference reads or writes.
type AccessKind int

// The two kinds of memory references the model classifies.
const (
	AccessLoad AccessKind = iota
	AccessStore

	numAccessKinds
)

func (k AccessKind) String() string {
	switch k {
	case AccessLoad:
		return "Load"
	case AccessStore:
		return "Store"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// accessStats accumulates hit and miss counts per access kind. Counters are
// monotonically non-decreasing for the life of the owning cache.
type accessStats struct {
	counts [numAccessKinds][2]uint64
}

func (s *accessStats) record(kind AccessKind, hit bool) {
	if hit {
		s.counts[kind][1]++
	} else {
		s.counts[kind][0]++
	}
}

func (s *accessStats) hits(kind AccessKind) uint64 {
	return s.counts[kind][1]
}

func (s *accessStats) misses(kind AccessKind) uint64 {
	return s.counts[kind][0]
}

func (s *accessStats) totalHits() uint64 {
	var sum uint64
	for kind := AccessKind(0); kind < numAccessKinds; kind++ {
		sum += s.hits(kind)
	}

	return sum
}

func (s *accessStats) totalMisses() uint64 {
	var sum uint64
	for kind := AccessKind(0); kind < numAccessKinds; kind++ {
		sum += s.misses(kind)
	}

	return sum
}

// Hits returns the number of accesses of the given kind that found their
// line resident.
func (c *Cache) Hits(kind AccessKind) uint64 {
	return c.stats.hits(kind)
}

// Misses returns the number of accesses of the given kind that did not find
// their line resident.
func (c *Cache) Misses(kind AccessKind) uint64 {
	return c.stats.misses(kind)
}

// Accesses returns the number of accesses of the given kind.
func (c *Cache) Accesses(kind AccessKind) uint64 {
	return c.stats.hits(kind) + c.stats.misses(kind)
}

// TotalHits returns the number of hits across all access kinds.
func (c *Cache) TotalHits() uint64 {
	return c.stats.totalHits()
}

// TotalMisses returns the number of misses across all access kinds.
func (c *Cache) TotalMisses() uint64 {
	return c.stats.totalMisses()
}

// TotalAccesses returns the number of accesses across all access kinds.
func (c *Cache) TotalAccesses() uint64 {
	return c.stats.totalHits() + c.stats.totalMisses()
}

// percentage divides part by whole and scales to 100. A zero whole renders
// as 0 rather than dividing by zero.
func percentage(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}

	return 100 * float64(part) / float64(whole)
}

// StatsLong renders a human-readable report of the per-kind and aggregate
// hit, miss, and access counts, each line prefixed with prefix.
func (c *Cache) StatsLong(prefix string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s:\n", prefix, c.name)

	for kind := AccessKind(0); kind < numAccessKinds; kind++ {
		writeStatLine(&b, prefix, kind.String()+"-Hits:",
			c.Hits(kind), c.Accesses(kind))
		writeStatLine(&b, prefix, kind.String()+"-Misses:",
			c.Misses(kind), c.Accesses(kind))
		writeStatLine(&b, prefix, kind.String()+"-Accesses:",
			c.Accesses(kind), c.Accesses(kind))
		fmt.Fprintf(&b, "%s\n", prefix)
	}

	writeStatLine(&b, prefix, "Total-Hits:",
		c.TotalHits(), c.TotalAccesses())
	writeStatLine(&b, prefix, "Total-Misses:",
		c.TotalMisses(), c.TotalAccesses())
	writeStatLine(&b, prefix, "Total-Accesses:",
		c.TotalAccesses(), c.TotalAccesses())
	b.WriteString("\n")

	return b.String()
}

func writeStatLine(
	b *strings.Builder,
	prefix, header string,
	count, total uint64,
) {
	fmt.Fprintf(b, "%s%-19s%12d  %6.2f%%\n",
		prefix, header, count, percentage(count, total))
}
