package section

import (
	"encoding/binary"

	"github.com/trailcask/trailcask/errs"
)

// TOC is the per-trail bit-offset table (spec.md §4.6, §6): width selects
// 4- or 8-byte entries depending on how large the trail stream grew,
// followed by num_trails+1 entries (one extra entry holding the stream's
// total bit length).
type TOC struct {
	Width   uint32 // 4 or 8
	Offsets []uint64
}

// NewTOC builds a TOC from bit-offsets, picking the narrowest width (4
// bytes, i.e. up to 2^32-1 bits ~ 512MiB of trail stream) that fits.
func NewTOC(offsets []uint64) TOC {
	width := uint32(4)
	for _, o := range offsets {
		if o > 0xffffffff {
			width = 8
			break
		}
	}

	return TOC{Width: width, Offsets: offsets}
}

// Bytes serialises the TOC.
func (t TOC) Bytes() []byte {
	entrySize := int(t.Width)
	out := make([]byte, 4+entrySize*len(t.Offsets))
	binary.LittleEndian.PutUint32(out[0:4], t.Width)

	pos := 4
	for _, o := range t.Offsets {
		if t.Width == 4 {
			binary.LittleEndian.PutUint32(out[pos:pos+4], uint32(o))
			pos += 4
		} else {
			binary.LittleEndian.PutUint64(out[pos:pos+8], o)
			pos += 8
		}
	}

	return out
}

// ParseTOC parses a TOC section written by Bytes.
func ParseTOC(raw []byte) (TOC, error) {
	if len(raw) < 4 {
		return TOC{}, errs.ErrCorruptSection
	}
	width := binary.LittleEndian.Uint32(raw[0:4])
	if width != 4 && width != 8 {
		return TOC{}, errs.ErrCorruptSection
	}

	entrySize := int(width)
	body := raw[4:]
	if len(body)%entrySize != 0 {
		return TOC{}, errs.ErrCorruptSection
	}
	count := len(body) / entrySize

	offsets := make([]uint64, count)
	for i := 0; i < count; i++ {
		if width == 4 {
			offsets[i] = uint64(binary.LittleEndian.Uint32(body[entrySize*i : entrySize*i+4]))
		} else {
			offsets[i] = binary.LittleEndian.Uint64(body[entrySize*i : entrySize*i+8])
		}
	}

	return TOC{Width: width, Offsets: offsets}, nil
}

// Range returns the [start, end) bit-offset range of trailID.
func (t TOC) Range(trailID uint64) (start, end uint64, err error) {
	if trailID+1 >= uint64(len(t.Offsets)) {
		return 0, 0, errs.ErrTrailIDOutOfRange
	}

	return t.Offsets[trailID], t.Offsets[trailID+1], nil
}
