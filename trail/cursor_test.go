package trail

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/item"
)

func TestCursorFilterSkipsNonMatchingEvents(t *testing.T) {
	built, userA, _ := buildSampleStore(t)
	dir := t.TempDir()
	require.NoError(t, built.WriteDirectory(dir))

	r, err := OpenDirectory(dir)
	require.NoError(t, err)
	defer r.Close()

	actionField, err := r.GetField("action")
	require.NoError(t, err)
	loginItem, err := r.GetItem(actionField, []byte("login"))
	require.NoError(t, err)

	tidA, err := r.GetTrailID(userA)
	require.NoError(t, err)
	cur, err := r.NewCursor(tidA)
	require.NoError(t, err)

	f := NewFilter()
	f.AddClause(Pos(loginItem))
	cur.SetFilter(f)

	var events []Event
	for {
		ev, err := cur.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}

	require.Len(t, events, 1)
	require.Equal(t, uint64(100), events[0].Timestamp)
}

func TestCursorFilterPeekReportsEOFWhenNothingMatches(t *testing.T) {
	built, userA, _ := buildSampleStore(t)
	dir := t.TempDir()
	require.NoError(t, built.WriteDirectory(dir))

	r, err := OpenDirectory(dir)
	require.NoError(t, err)
	defer r.Close()

	tidA, err := r.GetTrailID(userA)
	require.NoError(t, err)
	cur, err := r.NewCursor(tidA)
	require.NoError(t, err)

	f := NewFilter()
	f.AddClause(Pos(item.Make(1, 9999))) // a value never interned for userA
	cur.SetFilter(f)

	_, err = cur.Peek()
	require.ErrorIs(t, err, io.EOF)
	_, err = cur.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestBuiltWriteDispatchesOnLayout(t *testing.T) {
	enc, err := NewEncoder(WithLayout(format.LayoutPackage))
	require.NoError(t, err)
	require.NoError(t, enc.AddEvent(uuid.New(), 1, map[string][]byte{"a": []byte("b")}))
	built, err := enc.Finalize(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := dir + "/store.trailcask"
	require.NoError(t, built.Write(path))

	r, err := OpenPackage(path)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, r.NumTrails())

	sections := r.Sections()
	require.NotEmpty(t, sections)
	var sawTrails bool
	for _, s := range sections {
		if s.Name == format.SectionTrails {
			sawTrails = true
		}
	}
	require.True(t, sawTrails)
}
