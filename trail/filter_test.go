package trail

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcask/trailcask/item"
)

func TestFilterMatchesConjunctionOfDisjunctions(t *testing.T) {
	login := item.Make(1, 1)
	logout := item.Make(1, 2)
	adminIP := item.Make(2, 1)

	f := NewFilter()
	f.AddClause(Pos(login), Pos(logout))
	f.AddClause(Pos(adminIP))

	require.True(t, f.Matches(Event{Items: []item.Item{login, adminIP}}))
	require.True(t, f.Matches(Event{Items: []item.Item{logout, adminIP}}))
	require.False(t, f.Matches(Event{Items: []item.Item{login}}))
}

func TestFilterNegatedTerm(t *testing.T) {
	login := item.Make(1, 1)
	other := item.Make(1, 2)

	f := NewFilter()
	f.AddClause(Neg(login))

	require.True(t, f.Matches(Event{Items: []item.Item{other}}))
	require.False(t, f.Matches(Event{Items: []item.Item{login}}))
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f := NewFilter()
	require.True(t, f.Matches(Event{}))
}
