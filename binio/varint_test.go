package binio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarInt_RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 300, 65535, 65536,
		math.MaxInt32, math.MaxUint32, 1 << 56, 1<<63 - 1,
	}
	for _, v := range values {
		enc := AppendVarInt(nil, v)
		require.LessOrEqual(t, len(enc), 9, "value %d", v)

		r := NewBytesReader(enc)
		got, err := r.ReadVarInt()
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, int64(len(enc)), r.Offset())
	}
}

func TestVarInt_KnownEncodings(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xAC, 0x02}, 300},
		{[]byte{0xFF, 0xFF, 0x03}, 65535},
	}
	for _, tt := range tests {
		got, err := NewBytesReader(tt.in).ReadVarInt()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestVarInt_TenthGroupRejected(t *testing.T) {
	in := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	_, err := NewBytesReader(in).ReadVarInt()
	require.ErrorIs(t, err, ErrMalformedVarint)
}

func TestVarInt_ZeroFinalGroupRejected(t *testing.T) {
	_, err := NewBytesReader([]byte{0x85, 0x00}).ReadVarInt()
	require.ErrorIs(t, err, ErrMalformedVarint)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(0), fe.Offset)
}

func TestVarInt_Truncated(t *testing.T) {
	_, err := NewBytesReader([]byte{0x80}).ReadVarInt()
	require.ErrorIs(t, err, ErrTruncated)
}
