package index

import "github.com/trailcask/trailcask/item"

// Term is one CNF literal: item, optionally negated.
type Term struct {
	Item    item.Item
	Negated bool
}

// Clause is a disjunction of terms ("OR"); a CNF query is a conjunction
// ("AND") of clauses.
type Clause struct {
	Terms []Term
}

// Query is a conjunctive-normal-form boolean filter over items.
type Query struct {
	Clauses []Clause
}

// NewQuery returns an empty query (matches every page; callers add clauses).
func NewQuery() *Query { return &Query{} }

// AddClause appends an OR-clause of terms to the query.
func (q *Query) AddClause(terms ...Term) {
	q.Clauses = append(q.Clauses, Clause{Terms: terms})
}

// Pos returns a non-negated term for it.
func Pos(it item.Item) Term { return Term{Item: it} }

// Neg returns a negated term for it.
func Neg(it item.Item) Term { return Term{Item: it, Negated: true} }

// bitset is a fixed-size page bitmap used while evaluating a query.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func allOnes(n int) bitset {
	b := newBitset(n)
	for i := range b {
		b[i] = ^uint64(0)
	}
	// clear the tail bits past n
	if rem := n % 64; rem != 0 {
		b[len(b)-1] &= (1 << uint(rem)) - 1
	}

	return b
}

func (b bitset) and(o bitset) {
	for i := range b {
		b[i] &= o[i]
	}
}

func (b bitset) or(o bitset) {
	for i := range b {
		b[i] |= o[i]
	}
}

func (b bitset) pages() []int {
	var out []int
	for i, w := range b {
		if w == 0 {
			continue
		}
		for bit := 0; bit < 64; bit++ {
			if w&(1<<uint(bit)) != 0 {
				out = append(out, i*64+bit)
			}
		}
	}

	return out
}

// EvaluatePages resolves q to the set of candidate page ids: pages that
// might contain a matching event. The postings index only records where an
// item is *present*; it has no way to prove a page contains an event where
// an item is *absent*. So any clause carrying a negated term is left
// unconstrained (all-ones) rather than narrowed from its positive terms
// alone — narrowing a mixed clause like (A OR NOT B) to just pages(A) would
// wrongly drop pages that satisfy it solely via NOT B, breaking the index's
// completeness guarantee (spec.md §4.11, §8 "Index completeness": the
// result must be a superset of the true match set). This is deliberate, not
// a FIXME (spec.md §9 open question, resolved in SPEC_FULL.md).
func (idx *Index) EvaluatePages(q *Query) []int {
	candidates := allOnes(idx.numPages)

	for _, clause := range q.Clauses {
		hasNegated := false
		for _, t := range clause.Terms {
			if t.Negated {
				hasNegated = true
				break
			}
		}
		if hasNegated {
			continue
		}

		clauseSet := newBitset(idx.numPages)
		for _, t := range clause.Terms {
			for _, pg := range idx.PagesFor(t.Item) {
				clauseSet[pg/64] |= 1 << uint(pg%64)
			}
		}
		candidates.and(clauseSet)
	}

	return candidates.pages()
}
