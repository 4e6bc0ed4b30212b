// Package item implements the (field, val) packing described in spec.md
// §4.4: a 32-bit fast path for common items and a 64-bit wide path for
// fields or values that do not fit the narrow domain. Item 0 is reserved as
// the event-terminator sentinel and is never produced by Make, since every
// real item has field >= 1 (field 0, the implicit time field, never
// produces items).
package item

import "github.com/trailcask/trailcask/format"

// Item is the packed (field, val) code. Bit 0 (the lowest bit) is the is32
// flag: 1 selects the 32-bit layout [is32:1|field:7|val:24], 0 selects the
// 64-bit wide layout [is32:1|field:15|val:48].
type Item uint64

// Sentinel is the reserved event-terminator item.
const Sentinel Item = 0

// IsWide reports whether item uses the 64-bit wide layout.
func (it Item) IsWide() bool {
	return it&1 == 0
}

// Field returns the field slot the item belongs to.
func (it Item) Field() int {
	if it.IsWide() {
		return int((it >> 1) & 0x7fff) // 15 bits
	}

	return int((it >> 1) & 0x7f) // 7 bits
}

// Val returns the interned value id the item carries, or
// format.Narrow32Overflow if the narrow (32-bit) encoding's per-field
// overflow sentinel is set.
func (it Item) Val() uint64 {
	if it.IsWide() {
		return uint64(it >> 16) // 48 bits
	}

	return uint64(it>>8) & 0xffffff // 24 bits
}

// Make packs (field, val) into an Item, selecting the narrowest layout that
// can represent both. field must be in [1, format.MaxFields]; a val that
// does not fit 24 bits forces the wide layout, as does a field beyond the
// narrow 7-bit range (which cannot happen given format.MaxFields, but is
// checked for robustness against a misconfigured caller).
func Make(field int, val uint64) Item {
	if field >= 1 && field <= 0x7f && val <= uint64(format.Narrow32ValMax) {
		return Item(1 | (uint64(field) << 1) | (val << 8))
	}

	return Item(((uint64(field) & 0x7fff) << 1) | (val << 16))
}

// MakeOverflow packs the per-field overflow sentinel for field using the
// narrow (32-bit) layout: val = format.Narrow32Overflow (spec.md §3,
// "field-overflow sentinel"). The wide layout never needs this sentinel
// since it always carries the real val.
func MakeOverflow(field int) Item {
	return Item(1 | (uint64(field) << 1) | (uint64(format.Narrow32Overflow) << 8))
}

// IsOverflow reports whether it is the narrow-layout overflow sentinel for
// its field.
func (it Item) IsOverflow() bool {
	return !it.IsWide() && it.Val() == uint64(format.Narrow32Overflow)
}
