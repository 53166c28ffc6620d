package binio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utfBytes(payload ...byte) []byte {
	return append([]byte{byte(len(payload) >> 8), byte(len(payload))}, payload...)
}

func TestReadUTF_ASCII(t *testing.T) {
	s, err := NewBytesReader(utfBytes('h', 'i')).ReadUTF()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestReadUTF_MultiByte(t *testing.T) {
	// 'A', U+00E9 (2 bytes), U+20AC (3 bytes)
	r := NewBytesReader(utfBytes('A', 0xC3, 0xA9, 0xE2, 0x82, 0xAC))
	s, err := r.ReadUTF()
	require.NoError(t, err)
	assert.Equal(t, "Aé€", s)
	assert.Equal(t, int64(8), r.Offset())
}

func TestReadUTF_NulAndSurrogates(t *testing.T) {
	in := "a\x00b😀"
	enc := EncodeModifiedUTF8(in)
	assert.Equal(t, []byte{'a', 0xC0, 0x80, 'b'}, enc[:4])
	assert.Len(t, enc, 4+6)

	s, err := NewBytesReader(utfBytes(enc...)).ReadUTF()
	require.NoError(t, err)
	assert.Equal(t, in, s)
}

func TestReadUTF_TruncatedSequence(t *testing.T) {
	_, err := NewBytesReader(utfBytes('x', 0xE2, 0x82)).ReadUTF()
	require.ErrorIs(t, err, ErrMalformedUTF)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(3), fe.Offset)
}

func TestReadUTF_BadLeadByte(t *testing.T) {
	_, err := NewBytesReader(utfBytes(0xF0, 0x9F, 0x98, 0x80)).ReadUTF()
	require.ErrorIs(t, err, ErrMalformedUTF)
}

func TestReadUTF_BadContinuation(t *testing.T) {
	_, err := NewBytesReader(utfBytes(0xC3, 0x41)).ReadUTF()
	require.ErrorIs(t, err, ErrMalformedUTF)
}

func TestReadUTF_ShortPayload(t *testing.T) {
	_, err := NewBytesReader([]byte{0x00, 0x05, 'a'}).ReadUTF()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadUTFLenient_FallsBackToUTF8(t *testing.T) {
	// Standard 4-byte UTF-8 is not modified UTF-8.
	s, err := NewBytesReader(utfBytes(0xF0, 0x9F, 0x98, 0x80)).ReadUTFLenient()
	require.NoError(t, err)
	assert.Equal(t, "😀", s)
}
