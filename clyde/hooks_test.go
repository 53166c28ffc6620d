package clyde

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/internal/clydetest"
	"github.com/Neumenon/clyde/shadow"
)

func TestFieldHooks_MostSpecificWins(t *testing.T) {
	reg := testRegistry(t)
	node, _ := reg.Lookup("com.example.Node")
	heavy, _ := reg.Lookup("com.example.HeavyNode")
	legacy, _ := reg.Lookup("com.example.Legacy")

	var called string
	h := NewFieldHooks()
	h.Register("com.example.Node", func(int, *shadow.Instance, *Decoder) error {
		called = "node"
		return nil
	})

	hook, ok := h.Lookup(heavy)
	require.True(t, ok)
	require.NoError(t, hook(0, nil, nil))
	assert.Equal(t, "node", called)

	h.Register("com.example.HeavyNode", func(int, *shadow.Instance, *Decoder) error {
		called = "heavy"
		return nil
	})
	hook, _ = h.Lookup(heavy)
	require.NoError(t, hook(0, nil, nil))
	assert.Equal(t, "heavy", called)

	hook, _ = h.Lookup(node)
	require.NoError(t, hook(0, nil, nil))
	assert.Equal(t, "node", called)

	_, ok = h.Lookup(legacy)
	assert.False(t, ok)
	assert.Equal(t, 2, h.Len())
}

func TestDecoder_FieldHookRewritesBuffer(t *testing.T) {
	hooks := NewFieldHooks()
	var seen []string
	hooks.Register("com.example.Node", func(n int, inst *shadow.Instance, d *Decoder) error {
		seen = d.FieldNames()
		w, ok := d.Field("weight")
		if !ok {
			return errors.New("weight missing")
		}
		n32, _ := w.AsInt()
		if err := d.SetField("weight", shadow.Int(n32*2)); err != nil {
			return err
		}
		return inst.Set("name", shadow.Str("hooked"))
	})

	w := clydetest.NewWriter(clydetest.VarInt).
		ID(1).Class(9, "com.example.HeavyNode", 0).Length(1).
		Field(1, 2, "weight").ID(classInteger).I32(21)
	d := openBytes(t, w.File(), WithFieldHooks(hooks))

	obj, err := readOne(t, d).AsObject()
	require.NoError(t, err)
	assert.Equal(t, []string{"weight"}, seen)
	weight, err := obj.Int("weight")
	require.NoError(t, err)
	assert.Equal(t, int32(42), weight)
	name, err := obj.Str("name")
	require.NoError(t, err)
	assert.Equal(t, "hooked", name)

	// Outside a field segment there is no buffer.
	_, ok := d.Field("weight")
	assert.False(t, ok)
	assert.ErrorIs(t, d.SetField("weight", shadow.Int(1)), ErrNoFieldFrame)
	assert.Nil(t, d.FieldNames())
}

func TestDecoder_FieldHookError(t *testing.T) {
	hooks := NewFieldHooks()
	boom := errors.New("boom")
	hooks.Register("com.example.Node", func(int, *shadow.Instance, *Decoder) error { return boom })

	d := openBytes(t, writeNodes(clydetest.VarInt).File(), WithFieldHooks(hooks))
	_, err := d.ReadObject(context.Background())
	assert.ErrorIs(t, err, boom)
}

func pointHook(inst *shadow.Instance, r *binio.Reader) error {
	x, err := r.ReadI32()
	if err != nil {
		return err
	}
	y, err := r.ReadI32()
	if err != nil {
		return err
	}
	if err := inst.Set("x", shadow.Int(x)); err != nil {
		return err
	}
	return inst.Set("y", shadow.Int(y))
}

func TestDecoder_EncodableHook(t *testing.T) {
	hooks := NewEncodableHooks()
	hooks.Register("com.example.Point", pointHook)

	w := clydetest.NewWriter(clydetest.VarInt).
		ID(1).Class(9, "com.example.Point", 1).I32(3).I32(-4).
		ID(1)
	d := openBytes(t, w.File(), WithEncodableHooks(hooks))

	v := readOne(t, d)
	p, err := v.AsObject()
	require.NoError(t, err)
	x, _ := p.Int("x")
	y, _ := p.Int("y")
	assert.Equal(t, int32(3), x)
	assert.Equal(t, int32(-4), y)

	again := readOne(t, d)
	assert.True(t, shadow.Same(v, again))
}

func TestDecoder_EncodableWithoutHook(t *testing.T) {
	w := clydetest.NewWriter(clydetest.VarInt).
		ID(1).Class(9, "com.example.Point", 1).I32(3).I32(-4)
	d := openBytes(t, w.File())

	_, err := d.ReadObject(context.Background())
	var use *UnsupportedStructureError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, "com.example.Point", use.Class)
}
