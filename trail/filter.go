package trail

import "github.com/trailcask/trailcask/item"

// Term is one CNF literal over a decoded event's items.
type Term struct {
	Item    item.Item
	Negated bool
}

// Clause is a disjunction ("OR") of terms.
type Clause struct {
	Terms []Term
}

// Filter is a conjunctive-normal-form boolean predicate over an event's
// items (spec.md §4.10): Matches(ev) is true iff every clause has at least
// one satisfied term.
type Filter struct {
	Clauses []Clause
}

// NewFilter returns an empty Filter (matches every event; add clauses to
// narrow it).
func NewFilter() *Filter { return &Filter{} }

// AddClause appends an OR-clause of terms.
func (f *Filter) AddClause(terms ...Term) {
	f.Clauses = append(f.Clauses, Clause{Terms: terms})
}

// Pos returns a non-negated term for it.
func Pos(it item.Item) Term { return Term{Item: it} }

// Neg returns a negated term for it.
func Neg(it item.Item) Term { return Term{Item: it, Negated: true} }

// Matches reports whether ev satisfies every clause.
func (f *Filter) Matches(ev Event) bool {
	if len(f.Clauses) == 0 {
		return true
	}

	present := make(map[item.Item]struct{}, len(ev.Items))
	for _, it := range ev.Items {
		present[it] = struct{}{}
	}

	for _, clause := range f.Clauses {
		if !clauseSatisfied(clause, present) {
			return false
		}
	}

	return true
}

func clauseSatisfied(c Clause, present map[item.Item]struct{}) bool {
	for _, t := range c.Terms {
		_, has := present[t.Item]
		if t.Negated {
			has = !has
		}
		if has {
			return true
		}
	}

	return false
}
