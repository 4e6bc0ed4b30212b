package huffman

import (
	"sort"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/internal/bitio"
	"github.com/trailcask/trailcask/item"
	"github.com/trailcask/trailcask/section"
)

// codeEntry is one assigned canonical code.
type codeEntry struct {
	code   uint16
	length uint8
}

// Model is the trained, immutable Huffman+bigram codebook shared by every
// trail in a store (spec.md §3 "Huffman model").
type Model struct {
	itemCode    map[item.Item]codeEntry
	bigramCode  map[[2]item.Item]codeEntry
	escapeEntry codeEntry

	root *trieNode // decode trie, built once at Build/Open time
}

type trieNode struct {
	sym   Symbol
	leaf  bool
	child [2]*trieNode
}

// candidate is a symbol plus its training frequency, carried through
// selection and package-merge.
type candidate struct {
	sym  Symbol
	freq uint64
}

// Build selects the top format.MaxSymbols-1 symbols (reserving one slot for
// the literal escape) by frequency from tr, then constructs a canonical,
// length-limited (<= format.MaxHuffmanCodeLen bits) Huffman code over them
// via the package-merge algorithm.
func (tr *Trainer) Build() *Model {
	candidates := make([]candidate, 0, len(tr.itemFreq)+len(tr.bigramFreq))
	for it, f := range tr.itemFreq {
		candidates = append(candidates, candidate{sym: ItemSymbol(it), freq: f})
	}
	for pair, f := range tr.bigramFreq {
		candidates = append(candidates, candidate{sym: BigramSymbol(pair[0], pair[1]), freq: f})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		// Deterministic tie-break so repeated builds over the same input
		// are bit-identical (spec.md §8 "Stability").
		return symbolLess(candidates[i].sym, candidates[j].sym)
	})

	maxTableSymbols := format.MaxSymbols - 1 // reserve a slot for the escape
	if len(candidates) > maxTableSymbols {
		candidates = candidates[:maxTableSymbols]
	}

	// The escape symbol's training weight is whatever mass didn't make the
	// cut, so it is laid out in the Huffman tree proportionally to how
	// often it will actually be used; a store where everything fits the
	// table gets a minimal (but non-zero, so it always has a valid code)
	// escape weight.
	var total, selected uint64
	for _, f := range tr.itemFreq {
		total += f
	}
	for _, c := range candidates {
		if c.sym.Kind == KindItem {
			selected += c.freq
		}
	}
	escapeWeight := total - selected
	if escapeWeight == 0 {
		escapeWeight = 1
	}

	syms := make([]Symbol, 0, len(candidates)+1)
	freqs := make([]uint64, 0, len(candidates)+1)
	syms = append(syms, LiteralEscapeSymbol)
	freqs = append(freqs, escapeWeight)
	for _, c := range candidates {
		syms = append(syms, c.sym)
		freqs = append(freqs, c.freq)
	}

	lengths := packageMergeLengths(freqs, format.MaxHuffmanCodeLen)
	codes := assignCanonicalCodes(lengths)

	m := &Model{
		itemCode:   make(map[item.Item]codeEntry),
		bigramCode: make(map[[2]item.Item]codeEntry),
	}
	for i, sym := range syms {
		entry := codeEntry{code: codes[i], length: uint8(lengths[i])}
		switch sym.Kind {
		case KindLiteralEscape:
			m.escapeEntry = entry
		case KindItem:
			m.itemCode[sym.A] = entry
		case KindBigram:
			m.bigramCode[[2]item.Item{sym.A, sym.B}] = entry
		}
	}
	m.root = buildTrie(syms, lengths, codes)

	return m
}

func symbolLess(a, b Symbol) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.A != b.A {
		return a.A < b.A
	}

	return a.B < b.B
}

// packageMergeLengths computes, for each weight in freqs, the code length
// of the optimal prefix code subject to a maximum length limit, via the
// package-merge (coin-collector) construction: build limit "lists" where
// list k holds the weight-sorted merge of list k-1's adjacent pairings
// ("packages") with the original items; the code length of symbol i is how
// many times it appears among the first 2n-2 items of the final list.
func packageMergeLengths(freqs []uint64, limit int) []int {
	n := len(freqs)
	if n == 1 {
		return []int{1}
	}

	originals := make([]pmPackage, n)
	for i, f := range freqs {
		originals[i] = pmPackage{weight: f, syms: []int{i}}
	}
	sort.Slice(originals, func(i, j int) bool { return originals[i].weight < originals[j].weight })

	list := originals
	for level := 1; level < limit; level++ {
		packaged := make([]pmPackage, 0, len(list)/2)
		for i := 0; i+1 < len(list); i += 2 {
			merged := make([]int, 0, len(list[i].syms)+len(list[i+1].syms))
			merged = append(merged, list[i].syms...)
			merged = append(merged, list[i+1].syms...)
			packaged = append(packaged, pmPackage{weight: list[i].weight + list[i+1].weight, syms: merged})
		}

		list = mergePackagesByWeight(packaged, originals)
	}

	take := 2*n - 2
	if take > len(list) {
		take = len(list)
	}

	counts := make([]int, n)
	for _, p := range list[:take] {
		for _, s := range p.syms {
			counts[s]++
		}
	}
	for i := range counts {
		if counts[i] == 0 {
			counts[i] = 1
		}
		if counts[i] > limit {
			counts[i] = limit
		}
	}

	return counts
}

// pmPackage is one node of a package-merge list: either an original symbol
// (len(syms) == 1) or the package of two lower-level nodes merged by weight.
type pmPackage struct {
	weight uint64
	syms   []int
}

func mergePackagesByWeight(a, b []pmPackage) []pmPackage {
	out := make([]pmPackage, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].weight <= b[j].weight {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	return out
}

// assignCanonicalCodes assigns canonical Huffman codes given per-symbol
// code lengths: symbols are ordered by (length, original index) and codes
// increment per the standard canonical-code construction.
func assignCanonicalCodes(lengths []int) []uint16 {
	n := len(lengths)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return lengths[order[i]] < lengths[order[j]] })

	codes := make([]uint16, n)
	code := 0
	prevLen := 0
	for _, idx := range order {
		l := lengths[idx]
		code <<= uint(l - prevLen)
		codes[idx] = uint16(code)
		code++
		prevLen = l
	}

	return codes
}

func buildTrie(syms []Symbol, lengths []int, codes []uint16) *trieNode {
	root := &trieNode{}
	for i, sym := range syms {
		node := root
		l := lengths[i]
		code := codes[i]
		for b := l - 1; b >= 0; b-- {
			bit := (code >> uint(b)) & 1
			if node.child[bit] == nil {
				node.child[bit] = &trieNode{}
			}
			node = node.child[bit]
		}
		node.leaf = true
		node.sym = sym
	}

	return root
}

// itemLiteralBits is the fixed width of the raw item written after an
// escape codeword: the full 64-bit wide-layout item, wide enough to
// represent any (field, val) pair regardless of which layout Make chose.
const itemLiteralBits = 64

// EncodeItem writes it's codeword if it has one in the table, or the
// literal-escape codeword followed by the raw 64-bit item otherwise.
func (m *Model) EncodeItem(w *bitio.Writer, it item.Item) {
	if e, ok := m.itemCode[it]; ok {
		writeCode(w, e)
		return
	}

	writeCode(w, m.escapeEntry)
	w.PutBits(uint64(it), itemLiteralBits)
}

// TryEncodeBigram attempts to encode the ordered pair (a, b) as a single
// bigram codeword. Returns false if the pair never made the trained table,
// in which case the caller must fall back to encoding a and b individually.
func (m *Model) TryEncodeBigram(w *bitio.Writer, a, b item.Item) bool {
	e, ok := m.bigramCode[[2]item.Item{a, b}]
	if !ok {
		return false
	}
	writeCode(w, e)

	return true
}

// HasBigram reports whether (a, b) has a trained bigram codeword, without
// writing anything.
func (m *Model) HasBigram(a, b item.Item) bool {
	_, ok := m.bigramCode[[2]item.Item{a, b}]

	return ok
}

func writeCode(w *bitio.Writer, e codeEntry) {
	for b := int(e.length) - 1; b >= 0; b-- {
		w.PutBits(uint64((e.code>>uint(b))&1), 1)
	}
}

// DecodedSymbol is one decoded codeword: either one item (Kind == KindItem)
// or two items in order (Kind == KindBigram). Decode turns a literal escape
// into the KindItem symbol of the raw item that follows it, so a
// DecodedSymbol never has Kind == KindLiteralEscape.
type DecodedSymbol = Symbol

// Decode reads one codeword from r, walking the canonical-code trie bit by
// bit until a leaf is reached. If the leaf is the literal-escape symbol, the
// raw item literal that follows is read and returned as a KindItem symbol,
// so callers never see KindLiteralEscape themselves.
func (m *Model) Decode(r *bitio.Reader) (DecodedSymbol, error) {
	node := m.root
	for i := 0; i < format.MaxHuffmanCodeLen; i++ {
		bit := r.GetBits(1)
		node = node.child[bit]
		if node == nil {
			return Symbol{}, errs.ErrCorruptSection
		}
		if node.leaf {
			if node.sym.Kind == KindLiteralEscape {
				return ItemSymbol(item.Item(r.GetBits(itemLiteralBits))), nil
			}

			return node.sym, nil
		}
	}

	return Symbol{}, errs.ErrCorruptSection
}

// ToSection converts the model to its on-disk section.Codebook
// representation (spec.md §6).
func (m *Model) ToSection() section.Codebook {
	entries := make([]section.CodebookEntry, 0, len(m.itemCode)+len(m.bigramCode)+1)
	entries = append(entries, section.CodebookEntry{
		Kind: section.KindLiteralEscape, Code: m.escapeEntry.code, Length: m.escapeEntry.length,
	})
	for it, e := range m.itemCode {
		entries = append(entries, section.CodebookEntry{
			Kind: section.KindItem, Payload: [2]uint64{uint64(it)}, Code: e.code, Length: e.length,
		})
	}
	for pair, e := range m.bigramCode {
		entries = append(entries, section.CodebookEntry{
			Kind: section.KindBigram, Payload: [2]uint64{uint64(pair[0]), uint64(pair[1])}, Code: e.code, Length: e.length,
		})
	}

	// Stable order so two builds over identical input are byte-identical
	// (spec.md §8 "Stability"): sort by (length, code) since codes are
	// canonical and unique per length tier.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Length != entries[j].Length {
			return entries[i].Length < entries[j].Length
		}

		return entries[i].Code < entries[j].Code
	})

	return section.Codebook{Entries: entries}
}

// FromSection reconstructs a decode-ready Model from an on-disk codebook.
func FromSection(cb section.Codebook) *Model {
	m := &Model{
		itemCode:   make(map[item.Item]codeEntry),
		bigramCode: make(map[[2]item.Item]codeEntry),
	}

	syms := make([]Symbol, 0, len(cb.Entries))
	lengths := make([]int, 0, len(cb.Entries))
	codes := make([]uint16, 0, len(cb.Entries))

	for _, e := range cb.Entries {
		entry := codeEntry{code: e.Code, length: e.Length}
		switch section.SymbolKind(e.Kind) {
		case section.KindLiteralEscape:
			m.escapeEntry = entry
			syms = append(syms, LiteralEscapeSymbol)
		case section.KindItem:
			it := item.Item(e.Payload[0])
			m.itemCode[it] = entry
			syms = append(syms, ItemSymbol(it))
		case section.KindBigram:
			a, b := item.Item(e.Payload[0]), item.Item(e.Payload[1])
			m.bigramCode[[2]item.Item{a, b}] = entry
			syms = append(syms, BigramSymbol(a, b))
		}
		lengths = append(lengths, int(e.Length))
		codes = append(codes, e.Code)
	}

	m.root = buildTrie(syms, lengths, codes)

	return m
}
