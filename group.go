package swisstable

// groupSize is the number of slots scanned together as a single 64-bit
// control-byte load.
const groupSize = 8

type group[K comparable, V any] struct {
	// 8 bytes of metadata (h2 or control states)
	// This fits perfectly in a single uint64 load
	ctrls [groupSize]uint8

	// 8 keys stored immediately after the metadata
	// With 8-byte keys, metadata plus keys take (8 + 8*8) = 72 bytes,
	// just slightly over one 64-byte cache line, before the values.
	slots [groupSize]K

	// 8 values stored after the keys.
	// Even If V is a struct{} type, Go compiler will add padding.
	// It's very sensible, you need to be careful with the value type.
	// If it's too large, you'll end up missing CPU cache lines.
	// If it's too low, Go will add padding and you'll end up wasting
	// memory for nothing.
	values [groupSize]V
}

var emptyCtrls = [groupSize]uint8{
	slotEmpty, slotEmpty, slotEmpty, slotEmpty,
	slotEmpty, slotEmpty, slotEmpty, slotEmpty,
}
