package bitio

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 200; trial++ {
		width := uint(1 + rng.Intn(64))
		offset := uint64(rng.Intn(4000))
		buf := make([]byte, ByteLen(offset+uint64(width)))

		var want uint64
		if width == 64 {
			want = rng.Uint64()
		} else {
			want = rng.Uint64() & maskLow64(width)
		}

		Write(buf, offset, width, want)
		got := Read(buf, offset, width)

		require.Equalf(t, want, got, "width=%d offset=%d", width, offset)
	}
}

func TestWriterReaderVarint(t *testing.T) {
	values := []int64{0, 1, -1, 127, -128, 1 << 20, -(1 << 20), 1 << 40, -(1 << 40)}

	w := NewWriter(0)
	for _, v := range values {
		w.PutVarint(v)
	}
	buf := w.Bytes()

	r := NewReader(buf, 0, w.BitLen())
	for _, want := range values {
		require.Equal(t, want, r.GetVarint())
	}
}

func TestWriterReaderBits(t *testing.T) {
	w := NewWriter(0)
	w.PutBits(0x1, 1)
	w.PutBits(0x2A, 7)
	w.PutBits(0xFFFF, 16)
	w.PutBits(0, 1)

	r := NewReader(w.Bytes(), 0, w.BitLen())
	require.Equal(t, uint64(0x1), r.GetBits(1))
	require.Equal(t, uint64(0x2A), r.GetBits(7))
	require.Equal(t, uint64(0xFFFF), r.GetBits(16))
	require.Equal(t, uint64(0), r.GetBits(1))
	require.True(t, r.Done())
}

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 40, ^uint64(0)}

	w := NewWriter(0)
	for _, v := range values {
		w.PutUvarint(v)
	}

	r := NewReader(w.Bytes(), 0, w.BitLen())
	for _, want := range values {
		require.Equal(t, want, r.GetUvarint())
	}
}
