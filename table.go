package swisstable

import (
	"hash/maphash"
	"unsafe"
)

// defaultCapacity is the floor applied to any caller-requested capacity and
// the capacity of a table created with a requested capacity of 0.
const defaultCapacity = 16

// table owns the control/slot arrays for a SwissTable-style open-addressed
// map and implements probe, insert-or-replace, find, remove, grow and
// compact. Map and Set are thin facades over it.
type table[K comparable, V any] struct {
	groups []group[K, V]

	capacity          uintptr // N, always a power of two
	numGroupsMask     uintptr
	capacityEffective uintptr // floor(N*7/8), the load-factor cap on size
	size              uintptr // L, live (Full) entries
	tombstones        uintptr // Deleted entries not yet reclaimed

	hashFunc HashFunc[K]

	emptyV V
}

// Option configures a table at construction time.
type Option[K comparable, V any] func(t *table[K, V])

// WithHashFunc overrides the default hash function for a table's key type.
func WithHashFunc[K comparable, V any](f HashFunc[K]) Option[K, V] {
	return func(t *table[K, V]) {
		t.hashFunc = f
	}
}

func (t *table[K, V]) init(capacity int, opts ...Option[K, V]) {
	if capacity < defaultCapacity {
		capacity = defaultCapacity
	}

	normalizedCapacity := uintptr(NextPowerOf2(uint32(capacity)))
	numGroups := normalizedCapacity / groupSize

	t.groups = make([]group[K, V], numGroups)
	t.capacity = numGroups * groupSize
	t.numGroupsMask = numGroups - 1
	t.capacityEffective = t.capacity * 7 / 8

	t.Reset()

	for _, opt := range opts {
		opt(t)
	}

	if t.hashFunc == nil {
		t.hashFunc = MakeDefaultHashFunc[K](maphash.MakeSeed())
	}
}

// Capacity returns N, the number of slots currently allocated.
func (t *table[K, V]) Capacity() int {
	return int(t.capacity)
}

// EffectiveCapacity returns floor(N*7/8), the most live entries the table
// may hold before an insert forces it to grow.
func (t *table[K, V]) EffectiveCapacity() int {
	return int(t.capacityEffective)
}

// Len returns L, the number of live entries.
func (t *table[K, V]) Len() int {
	return int(t.size)
}

func (t *table[K, V]) get(key K) (V, bool) {
	h1, h2 := HashSplit(t.hashFunc(key))
	mask := t.numGroupsMask
	start := (h1 / groupSize) & mask

	for p, offset := uintptr(0), start; p <= mask; p++ {
		g := &t.groups[offset]
		ctrl := *(*uint64)(unsafe.Pointer(&g.ctrls))

		// SIMD-like match: one comparison covers all 8 slots in the group.
		matches := matchH2(ctrl, h2)
		for matches != 0 {
			idx := matches.first()
			if g.slots[idx] == key {
				return g.values[idx], true
			}

			matches = matches.removeFirst()
		}

		// Empty is the only search terminator; Deleted is skipped.
		if matchEmpty(ctrl) != 0 {
			return t.emptyV, false
		}

		// Triangular probe over group indices.
		offset = (start + (p+1)*(p+2)/2) & mask
	}

	return t.emptyV, false
}

// insert implements the insert-or-replace protocol. It returns the value
// previously stored for key (if any) and whether a previous value existed.
// A replace never triggers growth; a genuinely new key may, which is why
// the probe for a new key runs again after grow/compact instead of the
// table pre-emptively refusing to insert based on size alone.
func (t *table[K, V]) insert(key K, value V) (V, bool) {
	for {
		prev, replaced, full := t.tryInsert(key, value)
		if !full {
			return prev, replaced
		}

		t.growOrCompact()
	}
}

// tryInsert attempts a single insert-or-replace pass. full is true when the
// probe could not place a new key — either because the live count has
// already reached the load cap, or because (in a degenerate, heavily
// tombstoned table) no Empty control byte exists anywhere along the probe.
// The caller is expected to grow or compact and retry.
func (t *table[K, V]) tryInsert(key K, value V) (prev V, replaced bool, full bool) {
	h1, h2 := HashSplit(t.hashFunc(key))
	mask := t.numGroupsMask
	start := (h1 / groupSize) & mask

	var (
		targetGroup *group[K, V]
		targetSlot  uintptr
		foundSlot   bool
	)

	for p, offset := uintptr(0), start; p <= mask; p++ {
		g := &t.groups[offset]
		ctrl := *(*uint64)(unsafe.Pointer(&g.ctrls))

		// 1. Key already present: replace in place, never grows.
		matchMask := matchH2(ctrl, h2)
		for matchMask != 0 {
			idx := matchMask.first()
			if g.slots[idx] == key {
				prev = g.values[idx]
				g.values[idx] = value
				return prev, true, false
			}

			matchMask = matchMask.removeFirst()
		}

		// 2. Remember the first Deleted-or-Empty slot seen along the probe.
		if !foundSlot {
			matchMask = matchEmptyOrDeleted(ctrl)
			if matchMask != 0 {
				targetGroup = g
				targetSlot = matchMask.first()
				foundSlot = true
			}
		}

		// 3. Empty terminates the search.
		if matchEmpty(ctrl) != 0 {
			if !foundSlot {
				return t.emptyV, false, true
			}

			if t.size >= t.capacityEffective {
				return t.emptyV, false, true
			}

			wasDeleted := targetGroup.ctrls[targetSlot] == slotDeleted
			targetGroup.ctrls[targetSlot] = h2
			targetGroup.slots[targetSlot] = key
			targetGroup.values[targetSlot] = value
			t.size++
			if wasDeleted {
				t.tombstones--
			}

			return t.emptyV, false, false
		}

		offset = (start + (p+1)*(p+2)/2) & mask
	}

	// Every group visited with no Empty anywhere: the table is saturated
	// with Full/Deleted slots even though size may be below the load cap.
	return t.emptyV, false, true
}

// growOrCompact reclaims room for the insert that just failed. If the live
// count is already at the load cap, only doubling the capacity helps — a
// same-size rehash never changes L, so it cannot lift the cap. Otherwise
// the probe must have been defeated by tombstone saturation, which a
// same-size rehash fixes without paying for a resize.
func (t *table[K, V]) growOrCompact() {
	if t.size < t.capacityEffective && t.tombstones > 0 {
		t.compact()
		return
	}

	t.grow(t.capacity * 2)
}

func (t *table[K, V]) delete(key K) (V, bool) {
	h1, h2 := HashSplit(t.hashFunc(key))
	mask := t.numGroupsMask
	start := (h1 / groupSize) & mask

	for p, offset := uintptr(0), start; p <= mask; p++ {
		g := &t.groups[offset]
		ctrl := *(*uint64)(unsafe.Pointer(&g.ctrls))

		matchMask := matchH2(ctrl, h2)
		for matchMask != 0 {
			idx := matchMask.first()
			if g.slots[idx] == key {
				v := g.values[idx]

				// Mark as Deleted (0xFE) to preserve the probe chain.
				g.ctrls[idx] = slotDeleted

				var zeroK K
				var zeroV V
				g.slots[idx] = zeroK
				g.values[idx] = zeroV

				t.size--
				t.tombstones++

				return v, true
			}

			matchMask = matchMask.removeFirst()
		}

		if matchEmpty(ctrl) != 0 {
			return t.emptyV, false
		}

		offset = (start + (p+1)*(p+2)/2) & mask
	}

	return t.emptyV, false
}

// Reset sets every control tag to Empty and every slot to absent,
// preserving capacity.
func (t *table[K, V]) Reset() {
	var zeroK K
	var zeroV V

	for i := range t.groups {
		g := &t.groups[i]
		copy(g.ctrls[:], emptyCtrls[:])

		for j := range groupSize {
			g.slots[j] = zeroK
			g.values[j] = zeroV
		}
	}

	t.size = 0
	t.tombstones = 0
}

// grow doubles capacity, allocates fresh arrays, and reinserts every
// surviving entry using its freshly computed h1/h2 against the new
// capacity. All Deleted tags are erased; L is preserved.
func (t *table[K, V]) grow(newCapacity uintptr) {
	old := t.groups

	numGroups := newCapacity / groupSize

	t.groups = make([]group[K, V], numGroups)
	t.numGroupsMask = numGroups - 1
	t.capacity = numGroups * groupSize
	t.capacityEffective = t.capacity * 7 / 8
	t.size = 0
	t.tombstones = 0

	for i := range t.groups {
		copy(t.groups[i].ctrls[:], emptyCtrls[:])
	}

	for i := range old {
		g := &old[i]
		for j := range groupSize {
			if g.ctrls[j] >= 0x80 {
				// Empty (0x80) or Deleted (0xFE): nothing to carry over.
				continue
			}

			t.insertFresh(g.slots[j], g.values[j])
		}
	}
}

// insertFresh places a key known not to already be present. It is only
// valid during grow/compact, where every surviving entry is unique by
// construction, so it skips the existing-key scan that insert needs.
func (t *table[K, V]) insertFresh(key K, value V) {
	h1, h2 := HashSplit(t.hashFunc(key))
	mask := t.numGroupsMask
	start := (h1 / groupSize) & mask

	for p, offset := uintptr(0), start; ; p++ {
		g := &t.groups[offset]
		ctrl := *(*uint64)(unsafe.Pointer(&g.ctrls))

		matchMask := matchEmpty(ctrl)
		if matchMask != 0 {
			idx := matchMask.first()
			g.ctrls[idx] = h2
			g.slots[idx] = key
			g.values[idx] = value
			t.size++

			return
		}

		offset = (start + (p+1)*(p+2)/2) & mask
	}
}

// compact is a same-size rehash: it drops every tombstone in place without
// changing capacity. We first walk the control bytes and mark every
// Deleted slot as Empty and every Full slot as Deleted (invertCtrls does
// this for a whole group in one instruction). Marking Deleted as Empty has
// effectively dropped the tombstones, but it fouled up the probe
// invariant; marking Full as Deleted gives us a marker for where the
// previously-Full slots are so the second pass can move them home.
func (t *table[K, V]) compact() {
	for i := range t.groups {
		g := &t.groups[i]
		ctrl := *(*uint64)(unsafe.Pointer(&g.ctrls))
		*(*uint64)(unsafe.Pointer(&g.ctrls)) = invertCtrls(ctrl)
	}

	mask := t.numGroupsMask

	for gi := range t.groups {
		g := &t.groups[gi]

		for j := uintptr(0); j < groupSize; j++ {
			// Only process slots we marked Deleted (originally Full).
			if g.ctrls[j] != slotDeleted {
				continue
			}

			key := g.slots[j]
			value := g.values[j]
			h1, h2 := HashSplit(t.hashFunc(key))
			start := (h1 / groupSize) & mask

			var (
				targetGroup *group[K, V]
				targetSlot  uintptr
			)

			for p, offset := uintptr(0), start; ; p++ {
				tg := &t.groups[offset]
				tc := *(*uint64)(unsafe.Pointer(&tg.ctrls))
				m := matchEmptyOrDeleted(tc)
				if m != 0 {
					targetGroup = tg
					targetSlot = m.first()
					break
				}

				offset = (start + (p+1)*(p+2)/2) & mask
			}

			switch {
			case targetGroup == g && targetSlot == j:
				// Already home.
				g.ctrls[j] = h2

			case targetGroup.ctrls[targetSlot] == slotEmpty:
				targetGroup.ctrls[targetSlot] = h2
				targetGroup.slots[targetSlot] = key
				targetGroup.values[targetSlot] = value
				g.ctrls[j] = slotEmpty

			default:
				// Target is itself a Deleted (not-yet-visited, originally
				// Full) slot: swap so the displaced key lands in our
				// just-vacated slot and gets reprocessed next iteration.
				targetGroup.ctrls[targetSlot] = h2
				g.slots[j], targetGroup.slots[targetSlot] = targetGroup.slots[targetSlot], g.slots[j]
				g.values[j], targetGroup.values[targetSlot] = targetGroup.values[targetSlot], g.values[j]
				j--
			}
		}
	}

	t.tombstones = 0
}

// keys returns a freshly allocated snapshot of every live key, in
// internal-array order.
func (t *table[K, V]) keys() []K {
	out := make([]K, 0, t.size)

	for i := range t.groups {
		g := &t.groups[i]
		for j := range groupSize {
			if g.ctrls[j] < 0x80 {
				out = append(out, g.slots[j])
			}
		}
	}

	return out
}

// values returns a freshly allocated snapshot of every live value, in
// internal-array order.
func (t *table[K, V]) values() []V {
	out := make([]V, 0, t.size)

	for i := range t.groups {
		g := &t.groups[i]
		for j := range groupSize {
			if g.ctrls[j] < 0x80 {
				out = append(out, g.values[j])
			}
		}
	}

	return out
}

// Entry is one (key, value) pair as returned by entries().
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// entries returns a freshly allocated snapshot of every live (key, value)
// pair, in internal-array order.
func (t *table[K, V]) entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, t.size)

	for i := range t.groups {
		g := &t.groups[i]
		for j := range groupSize {
			if g.ctrls[j] < 0x80 {
				out = append(out, Entry[K, V]{Key: g.slots[j], Value: g.values[j]})
			}
		}
	}

	return out
}

// Stats reports a point-in-time snapshot of table occupancy, useful for
// callers that want to reason about load factor or tombstone buildup
// without re-deriving it from Len/Capacity.
func (t *table[K, V]) Stats() Stats {
	var capacityRatio, sizeRatio, loadFactor float32

	if t.capacity > 0 {
		capacityRatio = float32(t.tombstones) / float32(t.capacity)
		loadFactor = float32(t.size) / float32(t.capacity)
	}
	if t.size > 0 {
		sizeRatio = float32(t.tombstones) / float32(t.size)
	}

	return Stats{
		Size:                    int(t.size),
		Tombstones:              int(t.tombstones),
		TombstonesCapacityRatio: capacityRatio,
		TombstonesSizeRatio:     sizeRatio,
		Capacity:                int(t.capacity),
		EffectiveCapacity:       int(t.capacityEffective),
		LoadFactor:              loadFactor,
	}
}
