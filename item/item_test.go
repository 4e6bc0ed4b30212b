package item

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeNarrowRoundTrip(t *testing.T) {
	it := Make(5, 100)
	require.False(t, it.IsWide())
	require.Equal(t, 5, it.Field())
	require.Equal(t, uint64(100), it.Val())
}

func TestMakeWideRoundTripOnLargeVal(t *testing.T) {
	it := Make(5, 1<<30)
	require.True(t, it.IsWide())
	require.Equal(t, 5, it.Field())
	require.Equal(t, uint64(1<<30), it.Val())
}

func TestZeroValueIsEmptyString(t *testing.T) {
	it := Make(1, 0)
	require.Equal(t, uint64(0), it.Val())
	require.NotEqual(t, Sentinel, it)
}

func TestOverflowSentinel(t *testing.T) {
	it := MakeOverflow(3)
	require.True(t, it.IsOverflow())
	require.Equal(t, 3, it.Field())
}

func TestSentinelIsZero(t *testing.T) {
	require.Equal(t, Item(0), Sentinel)
}
