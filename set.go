package swisstable

// Set is a thin projection of Map over a zero-sized value type: the same
// SwissTable machinery, renamed to set semantics. The struct{} value array
// holds no data, but as the last field of a group it still costs the
// padding Go adds after a trailing zero-sized field (8 bytes per group for
// 8-byte keys) compared with a hand-duplicated value-less table.
type Set[K comparable] struct {
	m Map[K, struct{}]
}

// NewSet returns an empty set. capacity is rounded up to the next power of
// two, with a floor of 16 applied — pass 0 to get the default.
func NewSet[K comparable](capacity int, opts ...Option[K, struct{}]) *Set[K] {
	return &Set[K]{m: *NewMap[K, struct{}](capacity, opts...)}
}

// Len returns the number of elements currently stored.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// IsEmpty reports whether the set holds no elements.
func (s *Set[K]) IsEmpty() bool {
	return s.m.IsEmpty()
}

// Capacity returns the number of slots currently allocated.
func (s *Set[K]) Capacity() int {
	return s.m.Capacity()
}

// Clear removes every element, preserving capacity.
func (s *Set[K]) Clear() {
	s.m.Clear()
}

// Contains reports whether v is a member of the set.
func (s *Set[K]) Contains(v K) bool {
	return s.m.ContainsKey(v)
}

// Insert adds v to the set. It returns true if v was newly inserted, false
// if it was already present.
func (s *Set[K]) Insert(v K) bool {
	_, existed := s.m.Insert(v, struct{}{})
	return !existed
}

// Remove deletes v from the set. It returns true if v was present.
func (s *Set[K]) Remove(v K) bool {
	_, existed := s.m.Remove(v)
	return existed
}

// Values returns a freshly allocated snapshot of every element, in
// internal-array order.
func (s *Set[K]) Values() []K {
	return s.m.Keys()
}

// Compact performs a same-size rehash, dropping every tombstone without
// changing capacity.
func (s *Set[K]) Compact() {
	s.m.Compact()
}

// Stats reports a point-in-time snapshot of occupancy and tombstone
// buildup.
func (s *Set[K]) Stats() Stats {
	return s.m.Stats()
}
