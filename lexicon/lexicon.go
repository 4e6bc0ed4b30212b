// Package lexicon implements the per-field value dictionary described in
// spec.md §4.3: an append-only sequence of unique byte strings during
// build, finalised to an offset table plus a concatenated payload. val=0
// always denotes the empty string and is never stored; val=i for i>=1 is
// the (i-1)th interned string.
//
// The on-disk shape (count, then N+1 cumulative offsets, then payload) is
// grounded on mebo/section.TextHeader's offset/index-entry layout and on
// mebo/encoding.VarStringEncoder's length-prefixed string idiom, generalized
// from "one string per data point" to "one growing dictionary per field".
package lexicon

import (
	"encoding/binary"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/internal/stringid"
)

// Builder interns values for a single field during encoding.
type Builder struct {
	ids *stringid.Map
}

// NewBuilder returns an empty field lexicon builder.
func NewBuilder() *Builder {
	return &Builder{ids: stringid.New()}
}

// Intern interns value and returns its val id (0 for the empty string).
// Returns errs.ErrValueTooLarge if value exceeds format.MaxValueSize.
func (b *Builder) Intern(value []byte) (uint64, error) {
	if len(value) > format.MaxValueSize {
		return 0, errs.ErrValueTooLarge
	}

	id, err := b.ids.Insert(value)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Len returns the number of distinct non-empty values interned so far.
func (b *Builder) Len() int {
	return b.ids.Len()
}

// HasOverflow reports whether this field's distinct value count has grown
// past the narrow (32-bit item) domain, meaning events referencing values
// beyond format.Narrow32ValMax must use the wide item encoding (item.Make
// already does this automatically based on magnitude; this flag is purely
// informational, surfaced through info's field_overflow_bitmap).
func (b *Builder) HasOverflow() bool {
	return b.ids.Len() > format.Narrow32ValMax
}

// Value returns the original bytes for val (nil for val=0, the empty string).
func (b *Builder) Value(val uint64) []byte {
	if val == 0 {
		return nil
	}

	return b.ids.Value(val)
}

// Finalize writes the lexicon's on-disk section: a little-endian u32 count
// N (the number of non-empty values), followed by N+1 little-endian u32
// cumulative offsets, followed by the concatenated value bytes.
func (b *Builder) Finalize() []byte {
	n := b.ids.Len()
	offsets := make([]uint32, n+1)

	var total uint32
	values := make([][]byte, n)
	for i := 0; i < n; i++ {
		v := b.ids.Value(uint64(i + 1))
		values[i] = v
		offsets[i] = total
		total += uint32(len(v))
	}
	offsets[n] = total

	out := make([]byte, 4+4*(n+1)+int(total))
	binary.LittleEndian.PutUint32(out[0:4], uint32(n))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(out[4+4*i:8+4*i], off)
	}

	pos := 4 + 4*(n+1)
	for _, v := range values {
		pos += copy(out[pos:], v)
	}

	return out
}

// Reader provides read-only access to a finalised lexicon section, plus a
// derived reverse-lookup map built once at Open for get_item (spec.md §4.7).
type Reader struct {
	offsets []uint32
	payload []byte
	byBytes map[string]uint64
}

// Open parses a finalised lexicon section produced by Finalize.
func Open(raw []byte) (*Reader, error) {
	if len(raw) < 4 {
		return nil, errs.ErrCorruptSection
	}

	n := int(binary.LittleEndian.Uint32(raw[0:4]))

	offTableEnd := 4 + 4*(n+1)
	if len(raw) < offTableEnd {
		return nil, errs.ErrCorruptSection
	}

	offsets := make([]uint32, n+1)
	for i := 0; i <= n; i++ {
		offsets[i] = binary.LittleEndian.Uint32(raw[4+4*i : 8+4*i])
	}

	payload := raw[offTableEnd:]
	if len(payload) < int(offsets[n]) {
		return nil, errs.ErrCorruptSection
	}

	r := &Reader{
		offsets: offsets,
		payload: payload,
		byBytes: make(map[string]uint64, n),
	}
	for i := 0; i < n; i++ {
		r.byBytes[string(r.valueAt(i))] = uint64(i + 1)
	}

	return r, nil
}

func (r *Reader) valueAt(i int) []byte {
	return r.payload[r.offsets[i]:r.offsets[i+1]]
}

// Size returns N+1: the number of addressable val ids, including val=0.
func (r *Reader) Size() int {
	return len(r.offsets) // (n+1) offsets == n values, plus implicit val 0
}

// Value returns the byte string for val. val=0 always returns an empty,
// non-nil slice.
func (r *Reader) Value(val uint64) ([]byte, error) {
	if val == 0 {
		return []byte{}, nil
	}
	idx := val - 1
	if idx >= uint64(len(r.offsets)-1) {
		return nil, errs.ErrUnknownField
	}

	return r.valueAt(int(idx)), nil
}

// GetItem returns the val id for bytes, 0 for the empty value, or
// format.Narrow32Overflow if bytes was never interned in this lexicon
// (spec.md §4.7: "returns overflow-item for unknown").
func (r *Reader) GetItem(value []byte) uint64 {
	if len(value) == 0 {
		return 0
	}

	if val, ok := r.byBytes[string(value)]; ok {
		return val
	}

	return uint64(format.Narrow32Overflow)
}
