package section

import (
	"encoding/binary"

	"github.com/trailcask/trailcask/errs"
)

// SymbolKind identifies what a codebook entry's payload represents.
type SymbolKind uint8

const (
	// KindLiteralEscape marks the fixed-width literal-item escape symbol.
	KindLiteralEscape SymbolKind = 0
	// KindItem marks a single-item symbol; Payload[0] holds the item.
	KindItem SymbolKind = 1
	// KindBigram marks a (item_a, item_b) symbol; Payload[0]/Payload[1]
	// hold the two items in order.
	KindBigram SymbolKind = 2
)

// CodebookEntry is one (symbol_kind, payload, code, length) tuple (spec.md §6).
type CodebookEntry struct {
	Kind    SymbolKind
	Payload [2]uint64 // Payload[1] unused unless Kind == KindBigram
	Code    uint16
	Length  uint8 // canonical Huffman code length in bits, <= format.MaxHuffmanCodeLen
}

// Codebook is the full on-disk symbol table.
type Codebook struct {
	Entries []CodebookEntry
}

const codebookEntrySize = 1 + 8 + 8 + 2 + 1 // kind + payload[0] + payload[1] + code + length

// Bytes serialises the codebook: K:u32 followed by K fixed-size entries.
func (c Codebook) Bytes() []byte {
	out := make([]byte, 4+codebookEntrySize*len(c.Entries))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(c.Entries)))

	pos := 4
	for _, e := range c.Entries {
		out[pos] = byte(e.Kind)
		binary.LittleEndian.PutUint64(out[pos+1:pos+9], e.Payload[0])
		binary.LittleEndian.PutUint64(out[pos+9:pos+17], e.Payload[1])
		binary.LittleEndian.PutUint16(out[pos+17:pos+19], e.Code)
		out[pos+19] = e.Length
		pos += codebookEntrySize
	}

	return out
}

// ParseCodebook parses a codebook section written by Bytes.
func ParseCodebook(raw []byte) (Codebook, error) {
	if len(raw) < 4 {
		return Codebook{}, errs.ErrCorruptSection
	}
	k := int(binary.LittleEndian.Uint32(raw[0:4]))
	need := 4 + codebookEntrySize*k
	if len(raw) < need {
		return Codebook{}, errs.ErrCorruptSection
	}

	entries := make([]CodebookEntry, k)
	pos := 4
	for i := 0; i < k; i++ {
		entries[i] = CodebookEntry{
			Kind:    SymbolKind(raw[pos]),
			Payload: [2]uint64{binary.LittleEndian.Uint64(raw[pos+1 : pos+9]), binary.LittleEndian.Uint64(raw[pos+9 : pos+17])},
			Code:    binary.LittleEndian.Uint16(raw[pos+17 : pos+19]),
			Length:  raw[pos+19],
		}
		pos += codebookEntrySize
	}

	return Codebook{Entries: entries}, nil
}
