// Package huffman builds and applies the canonical, length-limited Huffman
// model over items and frequent adjacent bigrams described in spec.md §4.6.
//
// Frequency counting is grounded on axiomhq-fsst's Train (sampled,
// escalating-fraction frequency accumulation over a corpus, see
// axiomhq-fsst/train.go) generalized from byte n-grams to (item, bigram)
// symbols; canonical code construction uses the package-merge algorithm, the
// standard technique for building an optimal code under a maximum code
// length constraint (spec.md requires codes of at most 16 bits).
package huffman

import "github.com/trailcask/trailcask/item"

// SymbolKind distinguishes the three codeword shapes the trail stream uses.
type SymbolKind uint8

const (
	// KindLiteralEscape signals "the following fixed-width field is a raw
	// item index, not drawn from the symbol table".
	KindLiteralEscape SymbolKind = iota
	// KindItem is a single item.
	KindItem
	// KindBigram is an adjacent (item_a, item_b) pair.
	KindBigram
)

// Symbol is one trainable unit: either a single item or an ordered item pair.
type Symbol struct {
	Kind SymbolKind
	A    item.Item
	B    item.Item // zero unless Kind == KindBigram
}

// ItemSymbol returns the single-item symbol for it.
func ItemSymbol(it item.Item) Symbol {
	return Symbol{Kind: KindItem, A: it}
}

// BigramSymbol returns the symbol for the ordered pair (a, b).
func BigramSymbol(a, b item.Item) Symbol {
	return Symbol{Kind: KindBigram, A: a, B: b}
}

// LiteralEscapeSymbol is the single, always-present escape symbol.
var LiteralEscapeSymbol = Symbol{Kind: KindLiteralEscape}
