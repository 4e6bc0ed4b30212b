package huffman

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcask/trailcask/internal/bitio"
	"github.com/trailcask/trailcask/item"
)

func buildSkewedTrainer() *Trainer {
	tr := NewTrainer(1)
	// A heavily skewed distribution: a handful of items dominate, and one
	// bigram repeats often enough to earn its own codeword.
	hot := item.Make(1, 10)
	warm := item.Make(1, 11)
	cold := item.Make(2, 5)

	events := make([][]item.Item, 0, 1000)
	for i := 0; i < 1000; i++ {
		switch {
		case i%2 == 0:
			events = append(events, []item.Item{hot, warm})
		case i%5 == 0:
			events = append(events, []item.Item{cold})
		default:
			events = append(events, []item.Item{hot})
		}
	}
	tr.ObserveTrail(0, events)

	return tr
}

func TestBuildProducesValidLengths(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	require.NotNil(t, m.root)
	for _, e := range m.itemCode {
		require.True(t, e.length >= 1 && e.length <= 16)
	}
	require.True(t, m.escapeEntry.length >= 1 && m.escapeEntry.length <= 16)
}

func TestEncodeDecodeItemRoundTrip(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	hot := item.Make(1, 10)
	w := bitio.NewWriter(64)
	m.EncodeItem(w, hot)

	r := bitio.NewReader(w.Bytes(), 0, w.BitLen())
	sym, err := m.Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindItem, sym.Kind)
	require.Equal(t, hot, sym.A)
}

func TestEncodeDecodeEscapeRoundTrip(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	unseen := item.Make(5, 999)
	w := bitio.NewWriter(64)
	m.EncodeItem(w, unseen)

	r := bitio.NewReader(w.Bytes(), 0, w.BitLen())
	sym, err := m.Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindItem, sym.Kind)
	require.Equal(t, unseen, sym.A)
}

func TestBigramRoundTrip(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	hot := item.Make(1, 10)
	warm := item.Make(1, 11)
	require.True(t, m.HasBigram(hot, warm))

	w := bitio.NewWriter(64)
	ok := m.TryEncodeBigram(w, hot, warm)
	require.True(t, ok)

	r := bitio.NewReader(w.Bytes(), 0, w.BitLen())
	sym, err := m.Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindBigram, sym.Kind)
	require.Equal(t, hot, sym.A)
	require.Equal(t, warm, sym.B)
}

func TestToSectionFromSectionRoundTrip(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	cb := m.ToSection()
	m2 := FromSection(cb)

	hot := item.Make(1, 10)
	w := bitio.NewWriter(64)
	m2.EncodeItem(w, hot)

	r := bitio.NewReader(w.Bytes(), 0, w.BitLen())
	sym, err := m2.Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindItem, sym.Kind)
	require.Equal(t, hot, sym.A)
}

func TestCanonicalCodesArePrefixFree(t *testing.T) {
	tr := buildSkewedTrainer()
	m := tr.Build()

	var codes []codeEntry
	for _, e := range m.itemCode {
		codes = append(codes, e)
	}
	codes = append(codes, m.escapeEntry)

	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}
			a, b := codes[i], codes[j]
			minLen := a.length
			if b.length < minLen {
				minLen = b.length
			}
			require.NotEqual(t, a.code>>(a.length-minLen), b.code>>(b.length-minLen),
				"code %d (len %d) is a prefix of code %d (len %d)", a.code, a.length, b.code, b.length)
		}
	}
}
