// Package sizealign provides the size/alignment arithmetic shared by the
// type universe and the x86-64 emitter: struct layout gaps, round-up to
// alignment, and the small SizeAlign value both sides pass around.
package sizealign

// SizeAlign is the size and alignment of a type or a stack slot, in bytes.
// Align is always a power of two.
type SizeAlign struct {
	Size  uint64
	Align uint64
}

// RoundUp rounds n up to the nearest multiple of align. align must be a
// power of two.
func RoundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// GapFor returns the number of padding bytes needed after an object of
// size `after` so that the next member, requiring `align`, starts on an
// aligned boundary.
func GapFor(after, align uint64) uint64 {
	return RoundUp(after, align) - after
}

// Struct computes the SizeAlign of a struct from its member SizeAligns in
// declaration order: each member is padded to its own alignment, and the
// total size is rounded up to the struct's overall alignment (the max of
// its members', or 1 for an empty struct).
func Struct(members []SizeAlign) SizeAlign {
	var offset, align uint64 = 0, 1
	for _, m := range members {
		offset += GapFor(offset, m.Align)
		offset += m.Size
		if m.Align > align {
			align = m.Align
		}
	}
	return SizeAlign{Size: RoundUp(offset, align), Align: align}
}

// Array computes the SizeAlign of an array of n elements of the given
// element SizeAlign.
func Array(elem SizeAlign, n uint64) SizeAlign {
	return SizeAlign{Size: elem.Size * n, Align: elem.Align}
}

// MemberOffset returns the byte offset of member index `idx` within a
// struct whose member SizeAligns are given in declaration order.
func MemberOffset(members []SizeAlign, idx int) uint64 {
	var offset uint64
	for i := 0; i < idx; i++ {
		offset += GapFor(offset, members[i].Align)
		offset += members[i].Size
	}
	offset += GapFor(offset, members[idx].Align)
	return offset
}
