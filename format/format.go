// Package format defines the on-disk constants shared between the encoder and
// the reader: the format version, section names, size limits, and the
// compression type enum used by the optional section-compression hook.
package format

import "strconv"

// Version is the current on-disk format version written to the info section.
// Readers reject any version they do not recognise (errs.ErrVersionMismatch).
const Version uint64 = 1

// Magic is the 64-bit constant terminating a package file, identifying it as
// a trailcask package (see spec.md §6).
const Magic uint64 = 0x5452414c4b303100 // "TRALK01\0" packed little-endian

// Limits mirrored from spec.md §2-§4.
const (
	// MaxFields is the largest number of user fields a store may declare
	// (field 0 is the implicit "time" field, so up to MaxFields user fields
	// plus field 0 are addressable by the 7-bit field slot of a 32-bit item).
	MaxFields = 127
	// MaxFieldNameLen bounds a field name's length.
	MaxFieldNameLen = 64
	// MaxValueSize bounds the length, in bytes, of any interned value.
	MaxValueSize = 1 << 16
	// Narrow32ValMax is the largest val id representable in the 32-bit item
	// encoding before the field must emit the overflow sentinel.
	Narrow32ValMax = 1<<24 - 2
	// Narrow32Overflow is the per-field overflow sentinel val id for 32-bit items.
	Narrow32Overflow = 1<<24 - 1
	// MaxSymbols bounds the combined count of item + bigram symbols the
	// Huffman codebook may train on.
	MaxSymbols = 1<<16 - 1
	// MaxHuffmanCodeLen is the maximum canonical Huffman code length in bits.
	MaxHuffmanCodeLen = 16
	// MaxPages bounds the number of pages the page index may partition trails into.
	MaxPages = 65534
	// TDBMaxTimeDelta bounds the delta, in the same unit as input timestamps,
	// between two consecutive events in a trail. A larger delta is a fatal
	// build error (spec.md §4.6 Pass 2, step 1).
	TDBMaxTimeDelta uint64 = 1 << 48
	// SectionNameLen is the fixed width, in bytes, of a section name in the
	// package-file trailing table of contents.
	SectionNameLen = 32
)

// TimeFieldName is the reserved name of the implicit field 0 (spec.md §3:
// "the literal name `time` is reserved"). No user field may declare it.
const TimeFieldName = "time"

// Section names used both for package-file TOC entries and directory-form file names.
const (
	SectionInfo     = "info"
	SectionFields   = "fields"
	SectionUUIDs    = "uuids"
	SectionCodebook = "codebook"
	SectionTOC      = "toc"
	SectionTrails   = "trails"
	SectionIndex    = "index"
	lexiconPrefix   = "lexicon."
)

// LexiconSectionName returns the section/file name for field f's lexicon (f
// is 1-based; field 0 has no lexicon, it is never interned).
func LexiconSectionName(f int) string {
	return lexiconPrefix + strconv.Itoa(f)
}

// CompressionType identifies the optional codec applied to low-entropy
// sections (lexicon payloads, the page-index payload blob). The hot trails
// section is never additionally compressed: it is already Huffman-coded.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Layout selects how an encoder writes its finished store.
type Layout uint8

const (
	// LayoutDirectory writes each section as a separate named file in a directory.
	LayoutDirectory Layout = iota
	// LayoutPackage concatenates sections into a single file with a trailing TOC.
	LayoutPackage
)

func (l Layout) String() string {
	if l == LayoutPackage {
		return "Package"
	}
	return "Directory"
}
