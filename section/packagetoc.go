package section

import (
	"encoding/binary"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
)

// PackageEntry names one section inside a package file (spec.md §6).
type PackageEntry struct {
	Name   string // <= format.SectionNameLen bytes
	Offset uint64
	Length uint64
}

const packageEntrySize = format.SectionNameLen + 8 + 8

// PackageTOC is the trailing table of contents of a package file.
type PackageTOC struct {
	Entries []PackageEntry
}

// Bytes serialises the PackageTOC body (without the trailing TOC_len and
// MAGIC footer, which the writer appends separately since they describe
// this section's own length).
func (t PackageTOC) Bytes() []byte {
	out := make([]byte, packageEntrySize*len(t.Entries))
	for i, e := range t.Entries {
		base := packageEntrySize * i
		var nameBuf [format.SectionNameLen]byte
		copy(nameBuf[:], e.Name)
		copy(out[base:base+format.SectionNameLen], nameBuf[:])
		binary.LittleEndian.PutUint64(out[base+format.SectionNameLen:base+format.SectionNameLen+8], e.Offset)
		binary.LittleEndian.PutUint64(out[base+format.SectionNameLen+8:base+packageEntrySize], e.Length)
	}

	return out
}

// ParsePackageTOC parses a PackageTOC body written by Bytes.
func ParsePackageTOC(raw []byte) (PackageTOC, error) {
	if len(raw)%packageEntrySize != 0 {
		return PackageTOC{}, errs.ErrCorruptSection
	}
	count := len(raw) / packageEntrySize

	entries := make([]PackageEntry, count)
	for i := 0; i < count; i++ {
		base := packageEntrySize * i
		nameBuf := raw[base : base+format.SectionNameLen]
		n := 0
		for n < len(nameBuf) && nameBuf[n] != 0 {
			n++
		}
		entries[i] = PackageEntry{
			Name:   string(nameBuf[:n]),
			Offset: binary.LittleEndian.Uint64(raw[base+format.SectionNameLen : base+format.SectionNameLen+8]),
			Length: binary.LittleEndian.Uint64(raw[base+format.SectionNameLen+8 : base+packageEntrySize]),
		}
	}

	return PackageTOC{Entries: entries}, nil
}

// Find returns the entry named name, or ok=false if absent.
func (t PackageTOC) Find(name string) (PackageEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}

	return PackageEntry{}, false
}
