package clyde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/internal/clydetest"
)

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    Header
		wantErr error
	}{
		{"classic", []byte{0xFA, 0xCE, 0xAF, 0x0E, 0x10, 0x00, 0x00, 0x00}, Header{Version: VersionClassic}, nil},
		{"intermediate compressed", []byte{0xFA, 0xCE, 0xAF, 0x0E, 0x10, 0x01, 0x10, 0x00}, Header{Version: VersionIntermediate, Compressed: true}, nil},
		{"varint", []byte{0xFA, 0xCE, 0xAF, 0x0E, 0x10, 0x02, 0x00, 0x00}, Header{Version: VersionVarInt}, nil},
		{"other flags", []byte{0xFA, 0xCE, 0xAF, 0x0E, 0x10, 0x02, 0x00, 0x01}, Header{Version: VersionVarInt}, nil},
		{"bad magic", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x10, 0x00, 0x00, 0x00}, Header{}, ErrBadMagic},
		{"bad version", []byte{0xFA, 0xCE, 0xAF, 0x0E, 0x10, 0x03, 0x00, 0x00}, Header{}, ErrUnsupportedVersion},
		{"short", []byte{0xFA, 0xCE, 0xAF}, Header{}, binio.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ReadHeader(binio.NewBytesReader(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "classic", VersionClassic.String())
	assert.Equal(t, "varint", VersionVarInt.String())
	assert.Equal(t, "unknown(0x0001)", Version(1).String())
}

func TestInflate_ZlibAndRawDeflate(t *testing.T) {
	w := clydetest.NewWriter(clydetest.VarInt).Raw([]byte("hello, clyde")...)
	for _, raw := range []bool{false, true} {
		file, err := w.Compressed(raw)
		require.NoError(t, err)
		got, err := inflate(file[8:])
		require.NoError(t, err)
		assert.Equal(t, "hello, clyde", string(got))
	}
}
