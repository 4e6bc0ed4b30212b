// Package section implements the fixed-layout on-disk sections described in
// spec.md §6: the "info" header, the "fields" name table, the "codebook"
// Huffman symbol table, the per-trail "toc" offset table, and the
// package-file trailing table of contents. Layout follows the teacher's
// section.TextHeader/TextFlag idiom (manual little-endian field packing,
// explicit Bytes()/Parse() pairs) generalized from one fixed 32-byte blob
// header to this format's variable-length sections.
package section

import (
	"encoding/binary"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
)

// InfoSize is the fixed byte size of the info section's scalar fields,
// excluding the trailing field_overflow_bitmap (whose length depends on
// num_fields).
const InfoSize = 8 * 7

// Info is the parsed "info" section (spec.md §6).
type Info struct {
	Version         uint64
	NumTrails       uint64
	NumEvents       uint64
	NumFields       uint64
	MinTimestamp    uint64
	MaxTimestamp    uint64
	TrailsPerPage   uint64
	FieldOverflow   []byte // ceil(NumFields/8) bytes, bit f-1 set iff field f overflowed
}

// Bytes serialises Info to its on-disk layout.
func (i Info) Bytes() []byte {
	bitmapLen := (i.NumFields + 7) / 8
	out := make([]byte, InfoSize+int(bitmapLen))

	binary.LittleEndian.PutUint64(out[0:8], i.Version)
	binary.LittleEndian.PutUint64(out[8:16], i.NumTrails)
	binary.LittleEndian.PutUint64(out[16:24], i.NumEvents)
	binary.LittleEndian.PutUint64(out[24:32], i.NumFields)
	binary.LittleEndian.PutUint64(out[32:40], i.MinTimestamp)
	binary.LittleEndian.PutUint64(out[40:48], i.MaxTimestamp)
	binary.LittleEndian.PutUint64(out[48:56], i.TrailsPerPage)
	copy(out[InfoSize:], i.FieldOverflow)

	return out
}

// ParseInfo parses an "info" section previously written by Bytes.
func ParseInfo(raw []byte) (Info, error) {
	if len(raw) < InfoSize {
		return Info{}, errs.ErrCorruptSection
	}

	i := Info{
		Version:       binary.LittleEndian.Uint64(raw[0:8]),
		NumTrails:     binary.LittleEndian.Uint64(raw[8:16]),
		NumEvents:     binary.LittleEndian.Uint64(raw[16:24]),
		NumFields:     binary.LittleEndian.Uint64(raw[24:32]),
		MinTimestamp:  binary.LittleEndian.Uint64(raw[32:40]),
		MaxTimestamp:  binary.LittleEndian.Uint64(raw[40:48]),
		TrailsPerPage: binary.LittleEndian.Uint64(raw[48:56]),
	}

	bitmapLen := (i.NumFields + 7) / 8
	if len(raw) < InfoSize+int(bitmapLen) {
		return Info{}, errs.ErrCorruptSection
	}
	i.FieldOverflow = make([]byte, bitmapLen)
	copy(i.FieldOverflow, raw[InfoSize:InfoSize+int(bitmapLen)])

	if i.Version != format.Version {
		return Info{}, errs.ErrVersionMismatch
	}

	return i, nil
}

// FieldHasOverflow reports whether user field f (1-based) overflowed its
// narrow value domain during build. Field 0 (time) is never interned and
// always reports false (see SPEC_FULL.md Open Question #1).
func (i Info) FieldHasOverflow(f int) bool {
	if f <= 0 || f > int(i.NumFields) {
		return false
	}
	idx := f - 1

	return i.FieldOverflow[idx/8]&(1<<uint(idx%8)) != 0
}

// SetFieldOverflow sets the overflow bit for user field f (1-based).
func (i *Info) SetFieldOverflow(f int) {
	if f <= 0 || f > int(i.NumFields) {
		return
	}
	idx := f - 1
	if i.FieldOverflow == nil {
		i.FieldOverflow = make([]byte, (i.NumFields+7)/8)
	}
	i.FieldOverflow[idx/8] |= 1 << uint(idx%8)
}

// Fields is the "fields" section: length-prefixed UTF-8 field names. Field
// 0 is implicitly "time" and is never stored in this section; Names holds
// the user fields 1..F in order.
type Fields struct {
	Names []string
}

// Bytes serialises Fields: a u32 count, then for each name a u16 length
// followed by the UTF-8 bytes.
func (f Fields) Bytes() []byte {
	size := 4
	for _, n := range f.Names {
		size += 2 + len(n)
	}
	out := make([]byte, size)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(f.Names)))

	pos := 4
	for _, n := range f.Names {
		binary.LittleEndian.PutUint16(out[pos:pos+2], uint16(len(n)))
		pos += 2
		pos += copy(out[pos:], n)
	}

	return out
}

// ParseFields parses a "fields" section written by Bytes.
func ParseFields(raw []byte) (Fields, error) {
	if len(raw) < 4 {
		return Fields{}, errs.ErrCorruptSection
	}
	count := int(binary.LittleEndian.Uint32(raw[0:4]))
	names := make([]string, 0, count)

	pos := 4
	for idx := 0; idx < count; idx++ {
		if pos+2 > len(raw) {
			return Fields{}, errs.ErrCorruptSection
		}
		l := int(binary.LittleEndian.Uint16(raw[pos : pos+2]))
		pos += 2
		if pos+l > len(raw) {
			return Fields{}, errs.ErrCorruptSection
		}
		names = append(names, string(raw[pos:pos+l]))
		pos += l
	}

	return Fields{Names: names}, nil
}
