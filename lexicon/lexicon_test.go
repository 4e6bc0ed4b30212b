package lexicon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcask/trailcask/format"
)

func TestBuilderInternAndFinalizeRoundTrip(t *testing.T) {
	b := NewBuilder()

	v1, err := b.Intern([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), v1)

	v2, err := b.Intern([]byte("beta"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), v2)

	// Re-interning returns the same id.
	v1Again, err := b.Intern([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, v1, v1Again)

	raw := b.Finalize()

	r, err := Open(raw)
	require.NoError(t, err)
	require.Equal(t, 3, r.Size()) // val 0 (empty) + alpha + beta

	empty, err := r.Value(0)
	require.NoError(t, err)
	require.Equal(t, []byte{}, empty)

	alpha, err := r.Value(v1)
	require.NoError(t, err)
	require.Equal(t, []byte("alpha"), alpha)

	beta, err := r.Value(v2)
	require.NoError(t, err)
	require.Equal(t, []byte("beta"), beta)
}

func TestGetItemRoundTripAndUnknown(t *testing.T) {
	b := NewBuilder()
	_, err := b.Intern([]byte("known"))
	require.NoError(t, err)

	r, err := Open(b.Finalize())
	require.NoError(t, err)

	require.Equal(t, uint64(0), r.GetItem(nil))
	require.Equal(t, uint64(1), r.GetItem([]byte("known")))
	require.Equal(t, uint64(format.Narrow32Overflow), r.GetItem([]byte("unknown-value")))
}

func TestValueTooLarge(t *testing.T) {
	b := NewBuilder()
	big := make([]byte, format.MaxValueSize+1)
	_, err := b.Intern(big)
	require.Error(t, err)
}

func TestHasOverflowFalseByDefault(t *testing.T) {
	b := NewBuilder()
	_, _ = b.Intern([]byte("x"))
	require.False(t, b.HasOverflow())
}
