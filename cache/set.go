package cache

import "fmt"

// A Set holds the tags of one associativity group and decides which resident
// line to evict when a new line must be brought in.
type Set interface {
	// Find reports whether tag is resident in the set. Implementations may
	// advance replacement bookkeeping as a side effect, so it must be called
	// exactly once per logical access.
	Find(tag Tag) bool

	// Replace evicts the line chosen by the replacement policy and installs
	// tag in its place.
	Replace(tag Tag)

	// SetAssociativity changes the number of active slots in the set.
	SetAssociativity(associativity int)

	// Associativity returns the number of active slots in the set.
	Associativity() int
}

// A slot is one line's worth of storage in a set. Cold slots carry a zero
// tag; the valid bit keeps them from matching a genuine access to the zero
// line.
type slot struct {
	tag   Tag
	valid bool
}

// A DirectMappedSet holds exactly one line. Its associativity is fixed at 1.
type DirectMappedSet struct {
	slot slot
}

// NewDirectMappedSet returns a direct-mapped set with a cold slot.
func NewDirectMappedSet() *DirectMappedSet {
	return &DirectMappedSet{}
}

// Find reports whether tag matches the single resident line. It has no side
// effect, so repeated lookups of the same tag keep hitting.
func (s *DirectMappedSet) Find(tag Tag) bool {
	return s.slot.valid && s.slot.tag.Matches(tag)
}

// Replace unconditionally overwrites the single slot with a clean copy of
// tag.
func (s *DirectMappedSet) Replace(tag Tag) {
	s.slot = slot{tag: NewTag(tag.identity), valid: true}
}

// SetAssociativity accepts 1 and panics on anything else.
func (s *DirectMappedSet) SetAssociativity(associativity int) {
	if associativity != 1 {
		panic(fmt.Sprintf(
			"direct-mapped set requires associativity 1, got %d",
			associativity))
	}
}

// Associativity always returns 1.
func (s *DirectMappedSet) Associativity() int {
	return 1
}

// An LRUSet approximates least-recently-used replacement with a per-slot age
// counter instead of an exact recency list. Every lookup ages all active
// slots except the matching one, and eviction picks the slot with the
// largest age.
type LRUSet struct {
	slots     []slot
	lastIndex int
}

// NewLRUSet returns a set with associativity active slots out of a fixed
// capacity of maxAssociativity. The capacity is allocated once here; the
// access path never allocates.
func NewLRUSet(associativity, maxAssociativity int) *LRUSet {
	if associativity < 1 || associativity > maxAssociativity {
		panic(fmt.Sprintf(
			"associativity %d out of range [1, %d]",
			associativity, maxAssociativity))
	}

	return &LRUSet{
		slots:     make([]slot, maxAssociativity),
		lastIndex: associativity - 1,
	}
}

// Find scans all active slots for tag. The matching slot's age resets to 0
// and every other active slot's age increments, whether or not the lookup
// hits.
func (s *LRUSet) Find(tag Tag) bool {
	found := false

	for i := s.lastIndex; i >= 0; i-- {
		if s.slots[i].valid && s.slots[i].tag.Matches(tag) {
			found = true
			s.slots[i].tag.age = 0
		} else {
			s.slots[i].tag.age++
		}
	}

	return found
}

// Replace overwrites the active slot with the largest age with a clean copy
// of tag. Slots are scanned from the highest active index down, and only a
// strictly larger age displaces the current victim, so the highest-indexed
// slot wins age ties.
func (s *LRUSet) Replace(tag Tag) {
	victim := s.lastIndex
	maxAge := 0

	for i := s.lastIndex; i >= 0; i-- {
		if s.slots[i].tag.age > maxAge {
			victim = i
			maxAge = s.slots[i].tag.age
		}
	}

	s.slots[victim] = slot{tag: NewTag(tag.identity), valid: true}
}

// SetAssociativity changes the number of active slots. Slots that fall
// outside the new bound keep their stale tags; they are unreachable until
// the bound is raised again.
func (s *LRUSet) SetAssociativity(associativity int) {
	if associativity < 1 || associativity > len(s.slots) {
		panic(fmt.Sprintf(
			"associativity %d out of range [1, %d]",
			associativity, len(s.slots)))
	}

	s.lastIndex = associativity - 1
}

// Associativity returns the number of active slots.
func (s *LRUSet) Associativity() int {
	return s.lastIndex + 1
}
