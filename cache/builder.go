package cache

import "fmt"

// Builder can build cache models.
type Builder struct {
	size             uint64
	lineSize         uint64
	associativity    int
	maxAssociativity int
	maxSets          int
	replacement      string
	storeAllocation  string
}

// MakeBuilder creates a builder with a 16 KB, 64 B line, 4-way,
// store-allocate LRU configuration.
func MakeBuilder() Builder {
	return Builder{
		size:             16 * KB,
		lineSize:         64,
		associativity:    4,
		maxAssociativity: 16,
		maxSets:          8 * KB,
		replacement:      "lru",
		storeAllocation:  "allocate",
	}
}

// WithSize sets the total capacity, in bytes, of the cache to build.
func (b Builder) WithSize(size uint64) Builder {
	b.size = size
	return b
}

// WithLineSize sets the line size, in bytes, of the cache to build.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithAssociativity sets the number of lines per set of the cache to build.
func (b Builder) WithAssociativity(associativity int) Builder {
	b.associativity = associativity
	return b
}

// WithMaxAssociativity sets the slot capacity pre-allocated per set.
func (b Builder) WithMaxAssociativity(maxAssociativity int) Builder {
	b.maxAssociativity = maxAssociativity
	return b
}

// WithMaxSets sets the upper bound on the number of sets.
func (b Builder) WithMaxSets(maxSets int) Builder {
	b.maxSets = maxSets
	return b
}

// WithReplacement sets the replacement strategy, "lru" or "directMapped".
func (b Builder) WithReplacement(replacement string) Builder {
	b.replacement = replacement
	return b
}

// WithStoreAllocation sets the store-miss policy, "allocate" or
// "noAllocate".
func (b Builder) WithStoreAllocation(storeAllocation string) Builder {
	b.storeAllocation = storeAllocation
	return b
}

// Build constructs the configured cache model with the given name. It
// panics on a configuration that violates the sizing contract.
func (b Builder) Build(name string) *Cache {
	return NewCache(Config{
		Name:             name,
		Size:             b.size,
		LineSize:         b.lineSize,
		Associativity:    b.associativity,
		MaxAssociativity: b.maxAssociativity,
		MaxSets:          b.maxSets,
		Replacement:      b.replacementPolicy(),
		StoreAllocation:  b.storeAllocationPolicy(),
	})
}

func (b Builder) replacementPolicy() Replacement {
	switch b.replacement {
	case "lru":
		return ReplacementLRU
	case "directMapped":
		return ReplacementDirectMapped
	default:
		panic(fmt.Sprintf("unknown replacement strategy %q", b.replacement))
	}
}

func (b Builder) storeAllocationPolicy() StoreAllocation {
	switch b.storeAllocation {
	case "allocate":
		return StoreAllocate
	case "noAllocate":
		return StoreNoAllocate
	default:
		panic(fmt.Sprintf("unknown store allocation policy %q",
			b.storeAllocation))
	}
}
