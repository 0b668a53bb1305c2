// Package cache models a set-associative hardware cache. It classifies a
// stream of memory references as hits or misses against a configurable
// number of sets, lines per set, and line size, with pluggable replacement
// and store-allocation policies. The model holds no data, only tags, and is
// intended to be driven once per memory reference by an instrumentation
// front end.
package cache

import (
	"fmt"
	"math/bits"
)

// Byte-size multipliers for cache configurations.
const (
	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30
)

// A StoreAllocation policy decides whether a store that misses brings its
// line into the cache.
type StoreAllocation int

const (
	// StoreAllocate inserts the missed line on a store miss.
	StoreAllocate StoreAllocation = iota

	// StoreNoAllocate leaves the cache unmodified on a store miss. Only
	// loads insert their line.
	StoreNoAllocate
)

// Replacement selects the cache-set variant used by all sets of a cache.
type Replacement int

const (
	// ReplacementLRU uses N-way sets with approximate-LRU eviction.
	ReplacementLRU Replacement = iota

	// ReplacementDirectMapped uses single-slot sets. The associativity must
	// be 1.
	ReplacementDirectMapped
)

// A Config carries the construction parameters of a cache model. All
// parameters are validated once, at construction; a configuration that
// violates the sizing contract panics rather than producing a model that
// silently mis-classifies accesses.
type Config struct {
	// Name labels the cache in reports. Diagnostic only.
	Name string

	// Size is the total capacity in bytes.
	Size uint64

	// LineSize is the line size in bytes. Must be a power of two.
	LineSize uint64

	// Associativity is the number of lines per set.
	Associativity int

	// MaxAssociativity bounds the slot capacity pre-allocated per set.
	// Zero means Associativity.
	MaxAssociativity int

	// MaxSets bounds the number of sets. Zero means no bound.
	MaxSets int

	// Replacement selects the set variant.
	Replacement Replacement

	// StoreAllocation selects the store-miss allocation policy.
	StoreAllocation StoreAllocation
}

// A Cache owns one Set per associativity group and classifies accesses
// against them. All storage is allocated at construction; the access path
// performs no allocation. A Cache is not safe for concurrent use.
type Cache struct {
	name            string
	size            uint64
	lineSize        uint64
	associativity   int
	storeAllocation StoreAllocation

	lineShift    uint
	setIndexMask uint64

	sets  []Set
	stats accessStats
}

// NewCache builds a cache model from cfg. It panics if the line size or the
// derived set count is not a power of two, if the associativity exceeds the
// configured maximum, or if the set count exceeds MaxSets.
func NewCache(cfg Config) *Cache {
	if !isPowerOfTwo(cfg.LineSize) {
		panic(fmt.Sprintf("line size %d is not a power of two", cfg.LineSize))
	}

	if cfg.Associativity < 1 {
		panic(fmt.Sprintf("associativity %d must be at least 1",
			cfg.Associativity))
	}

	maxAssociativity := cfg.MaxAssociativity
	if maxAssociativity == 0 {
		maxAssociativity = cfg.Associativity
	}

	if cfg.Associativity > maxAssociativity {
		panic(fmt.Sprintf("associativity %d exceeds maximum %d",
			cfg.Associativity, maxAssociativity))
	}

	numSets := cfg.Size / (uint64(cfg.Associativity) * cfg.LineSize)
	if !isPowerOfTwo(numSets) {
		panic(fmt.Sprintf(
			"size %d, line size %d, associativity %d yield %d sets, "+
				"not a power of two",
			cfg.Size, cfg.LineSize, cfg.Associativity, numSets))
	}

	if cfg.MaxSets != 0 && numSets > uint64(cfg.MaxSets) {
		panic(fmt.Sprintf("%d sets exceed maximum %d", numSets, cfg.MaxSets))
	}

	c := &Cache{
		name:            cfg.Name,
		size:            cfg.Size,
		lineSize:        cfg.LineSize,
		associativity:   cfg.Associativity,
		storeAllocation: cfg.StoreAllocation,
		lineShift:       floorLog2(cfg.LineSize),
		setIndexMask:    numSets - 1,
		sets:            make([]Set, numSets),
	}

	for i := range c.sets {
		c.sets[i] = newSet(cfg.Replacement, cfg.Associativity,
			maxAssociativity)
	}

	return c
}

func newSet(replacement Replacement, associativity, maxAssociativity int) Set {
	switch replacement {
	case ReplacementDirectMapped:
		s := NewDirectMappedSet()
		s.SetAssociativity(associativity)

		return s
	case ReplacementLRU:
		return NewLRUSet(associativity, maxAssociativity)
	default:
		panic(fmt.Sprintf("unknown replacement policy %d", replacement))
	}
}

// Name returns the diagnostic label of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Size returns the total capacity in bytes.
func (c *Cache) Size() uint64 {
	return c.size
}

// LineSize returns the line size in bytes.
func (c *Cache) LineSize() uint64 {
	return c.lineSize
}

// Associativity returns the number of lines per set.
func (c *Cache) Associativity() int {
	return c.associativity
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() uint64 {
	return c.setIndexMask + 1
}

// SplitAddress decomposes addr into the line tag and the index of the set
// the line maps to.
func (c *Cache) SplitAddress(addr uint64) (tag Tag, setIndex uint64) {
	identity := addr >> c.lineShift

	return NewTag(identity), identity & c.setIndexMask
}

// SplitAddressOffset additionally returns the byte offset of addr within
// its line.
func (c *Cache) SplitAddressOffset(
	addr uint64,
) (tag Tag, setIndex, lineOffset uint64) {
	tag, setIndex = c.SplitAddress(addr)
	lineOffset = addr & (c.lineSize - 1)

	return tag, setIndex, lineOffset
}

// Access classifies a memory reference spanning [addr, addr+size). The
// range is walked one line at a time and every covered line is classified
// and counted individually. It returns true only if every covered line was
// resident. The size must be at least 1.
func (c *Cache) Access(addr uint64, size uint32, kind AccessKind) bool {
	if size < 1 {
		panic("access size must be at least 1")
	}

	highAddr := addr + uint64(size)
	notLineMask := ^(c.lineSize - 1)
	allHit := true

	for {
		hit := c.AccessSingleLine(addr, kind)
		allHit = allHit && hit

		addr = (addr & notLineMask) + c.lineSize
		if addr >= highAddr {
			break
		}
	}

	return allHit
}

// AccessSingleLine classifies a memory reference that does not cross a line
// boundary. On a miss, the line is inserted if the reference is a load, or
// if it is a store and the cache allocates on store misses. The per-kind
// counters are updated either way.
func (c *Cache) AccessSingleLine(addr uint64, kind AccessKind) bool {
	tag, setIndex := c.SplitAddress(addr)
	set := c.sets[setIndex]

	hit := set.Find(tag)

	if !hit &&
		(kind == AccessLoad || c.storeAllocation == StoreAllocate) {
		set.Replace(tag)
	}

	c.stats.record(kind, hit)

	return hit
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

func floorLog2(n uint64) uint {
	return uint(bits.Len64(n) - 1)
}
