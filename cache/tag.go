package cache

// A Tag identifies the memory line resident in a cache slot. The identity is
// the line address shifted right by the line-offset width. The age counter
// and the dirty bit are replacement-policy bookkeeping and do not
// participate in identity.
type Tag struct {
	identity uint64
	age      int
	dirty    bool
}

// NewTag returns a clean tag for the given line identity, with the age
// counter and the dirty bit reset.
func NewTag(identity uint64) Tag {
	return Tag{identity: identity}
}

// Identity returns the line identity carried by the tag.
func (t Tag) Identity() uint64 {
	return t.identity
}

// Matches reports whether two tags refer to the same memory line. Only the
// identity is compared.
func (t Tag) Matches(other Tag) bool {
	return t.identity == other.identity
}
