package clyde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/internal/clydetest"
	"github.com/Neumenon/clyde/shadow"
)

func TestStreamers_Wrappers(t *testing.T) {
	s := NewStreamers(false)
	payload := clydetest.NewWriter(clydetest.VarInt).
		Bool(true).U8(0xFF).U16('x').F64(1.5).F32(-2).I32(7).I64(-8).I16(300).
		Payload()
	r := binio.NewBytesReader(payload)

	want := []shadow.Value{
		shadow.Bool(true), shadow.Byte(-1), shadow.Char('x'), shadow.Double(1.5),
		shadow.Float(-2), shadow.Int(7), shadow.Long(-8), shadow.Short(300),
	}
	for i, name := range shadow.BootstrapNames {
		st, ok := s.Lookup(name)
		require.True(t, ok, name)
		v, err := st.Read(r)
		require.NoError(t, err, name)
		assert.Equal(t, want[i], v, name)
	}
	assert.False(t, r.More())
}

func TestStreamers_Strings(t *testing.T) {
	s := NewStreamers(false)
	for _, sig := range []string{shadow.StringClass, FileClass, ClassClass} {
		st, ok := s.Lookup(sig)
		require.True(t, ok, sig)
		r := binio.NewBytesReader(clydetest.NewWriter(clydetest.VarInt).UTF("aé\x00").Payload())
		v, err := st.Read(r)
		require.NoError(t, err)
		assert.Equal(t, shadow.Str("aé\x00"), v)
	}
}

func TestStreamers_CountedRuns(t *testing.T) {
	s := NewStreamers(false)
	tests := []struct {
		sig     string
		payload []byte
		want    any
	}{
		{"[Z", clydetest.NewWriter(0).I32(2).Bool(true).Bool(false).Payload(), []bool{true, false}},
		{"[B", clydetest.NewWriter(0).I32(2).U8(1).U8(0x80).Payload(), []int8{1, -128}},
		{"[C", clydetest.NewWriter(0).I32(1).U16('z').Payload(), []uint16{'z'}},
		{"[S", clydetest.NewWriter(0).I32(1).I16(-3).Payload(), []int16{-3}},
		{"[J", clydetest.NewWriter(0).I32(1).I64(1 << 40).Payload(), []int64{1 << 40}},
		{"[D", clydetest.NewWriter(0).I32(0).Payload(), []float64{}},
		{"java.nio.ByteBuffer", clydetest.NewWriter(0).I32(1).U8(5).Payload(), []int8{5}},
		{"java.nio.IntBuffer", clydetest.NewWriter(0).I32(2).I32(1).I32(2).Payload(), []int32{1, 2}},
		{"java.nio.DoubleBuffer", clydetest.NewWriter(0).I32(1).F64(0.25).Payload(), []float64{0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			st, ok := s.Lookup(tt.sig)
			require.True(t, ok)
			v, err := st.Read(binio.NewBytesReader(tt.payload))
			require.NoError(t, err)
			got, err := v.AsPrimitives()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamers_CountedRunErrors(t *testing.T) {
	st, _ := NewStreamers(false).Lookup("[I")

	_, err := st.Read(binio.NewBytesReader(clydetest.NewWriter(0).I32(-1).Payload()))
	assert.ErrorIs(t, err, ErrNegativeLength)

	_, err = st.Read(binio.NewBytesReader(clydetest.NewWriter(0).I32(1 << 30).I32(1).Payload()))
	assert.ErrorIs(t, err, binio.ErrTruncated)
}

func TestStreamers_Lookup(t *testing.T) {
	s := NewStreamers(false)
	_, ok := s.Lookup("[Ljava.lang.String;")
	assert.False(t, ok)
	_, ok = s.Lookup("[Ljava.lang.Integer;")
	assert.False(t, ok)
	_, ok = s.Lookup("com.example.Node")
	assert.False(t, ok)

	s.Register("com.example.Node", StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		return shadow.Null(), nil
	}))
	_, ok = s.Lookup("com.example.Node")
	assert.True(t, ok)
}
