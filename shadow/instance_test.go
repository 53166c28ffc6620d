package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstance(t *testing.T, reg *Registry, name string) *Instance {
	t.Helper()
	tmpl, ok := reg.Lookup(name)
	require.True(t, ok, name)
	in, err := tmpl.Clone()
	require.NoError(t, err)
	return in
}

func TestInstance_DefaultsAndUnknown(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")

	score, err := p.Long("score")
	require.NoError(t, err)
	assert.Equal(t, int64(0), score)

	// Declared on the base class.
	id, err := p.Int("id")
	require.NoError(t, err)
	assert.Equal(t, int32(0), id)

	name, err := p.Get("name")
	require.NoError(t, err)
	assert.True(t, name.IsNull())

	_, err = p.Get("nope")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nope", se.Field)

	_, err = p.Str("score")
	assert.Error(t, err, "typed accessor must reject a kind mismatch")
}

func TestInstance_BaseRedirect(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")

	require.NoError(t, p.Set("name", Str("ana")))
	require.NoError(t, p.Set("score", Long(7)))

	assert.Equal(t, []string{"score"}, p.Names(), "base-owned field must not be stored locally")
	base := p.BaseInstance()
	require.NotNil(t, base)
	assert.Equal(t, []string{"name"}, base.Names())

	got, err := p.Str("name")
	require.NoError(t, err)
	assert.Equal(t, "ana", got)

	// Forced local write shadows the base value.
	require.NoError(t, p.SetField("name", Str("local"), true))
	got, _ = p.Str("name")
	assert.Equal(t, "local", got)
	got, _ = base.Str("name")
	assert.Equal(t, "ana", got)
}

func TestInstance_UndeclaredFieldStaysLocal(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")
	require.NoError(t, p.Set("extra", Int(3)))
	assert.Equal(t, []string{"extra"}, p.Names())
	v, err := p.Int("extra")
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestInstance_TypeChecks(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")
	region := newInstance(t, reg, "com.example.World$Region")
	item := newInstance(t, reg, "com.example.Item")

	require.NoError(t, p.Set("home", ObjectValue(region)))
	require.NoError(t, p.Set("home", Null()))

	err := p.Set("home", ObjectValue(item))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "home", se.Field)

	assert.Error(t, p.Set("score", Int(1)), "long field rejects int")

	invType, _ := reg.Resolve("[Lcom.example.Item;")
	require.NoError(t, p.Set("inventory", ArrayValue(invType.(*ArrayType).NewArray(2))))

	wrongType, _ := reg.Resolve("[Lcom.example.Player;")
	assert.Error(t, p.Set("inventory", ArrayValue(wrongType.(*ArrayType).NewArray(1))))

	// A declared class field only takes instances of that class.
	list, _ := ContainerOf("java.util.ArrayList")
	for _, v := range []Value{Int(7), Str("x"), Bool(true), CollectionValue(list.NewCollection())} {
		err := p.Set("home", v)
		require.ErrorAs(t, err, &se, v.Kind().String())
		assert.Equal(t, "home", se.Field)
	}
	assert.Error(t, p.Set("name", Int(3)), "string field rejects int")
	require.NoError(t, p.Set("tags", CollectionValue(list.NewCollection())))

	inv := invType.(*ArrayType).NewArray(1)
	assert.Error(t, inv.Set(0, Bool(true)))
	assert.Error(t, inv.Set(0, Str("sword")))
	require.NoError(t, inv.Set(0, ObjectValue(item)))
}

func TestInstance_UnsetDefaults(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")

	score, err := p.Get("score")
	require.NoError(t, err)
	assert.Equal(t, Long(0), score)

	home, err := p.Get("home")
	require.NoError(t, err)
	assert.True(t, home.IsNull())

	inv, err := p.Get("inventory")
	require.NoError(t, err)
	arr, err := inv.AsArray()
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Len())
	want, _ := reg.Resolve("[Lcom.example.Item;")
	assert.Same(t, want, arr.Type())
	assert.False(t, p.Has("inventory"))
}

func TestInstance_AssignAlias(t *testing.T) {
	reg := loadTestDump(t)
	item := newInstance(t, reg, "com.example.Item")

	require.NoError(t, item.Assign("label", Str("sword")))
	require.NoError(t, item.Assign("count", Short(2)))

	assert.Equal(t, []string{"_label", "count"}, item.Names())
	got, err := item.Str("_label")
	require.NoError(t, err)
	assert.Equal(t, "sword", got)
}

func TestInstance_Fields(t *testing.T) {
	reg := loadTestDump(t)
	p := newInstance(t, reg, "com.example.Player")
	require.NoError(t, p.Set("name", Str("bo")))
	require.NoError(t, p.Set("extra", Bool(true)))

	var names []string
	for _, f := range p.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "id", "score", "inventory", "grid", "tags", "home", "extra"}, names)
}

func TestArray_NewArray(t *testing.T) {
	reg := loadTestDump(t)

	ints, _ := reg.Resolve("[Ljava.lang.Integer;")
	a := ints.(*ArrayType).NewArray(3)
	assert.Equal(t, 3, a.Len())
	v, _ := a.Get(1)
	assert.Equal(t, KindInt, v.Kind())
	assert.Error(t, a.Set(0, Str("x")))
	require.NoError(t, a.Set(0, Int(9)))

	items, _ := reg.Resolve("[Lcom.example.Item;")
	b := items.(*ArrayType).NewArray(2)
	for _, e := range b.Values() {
		assert.True(t, e.IsNull(), "class slots start null")
	}

	strs, _ := reg.Resolve("[Ljava.lang.String;")
	s := strs.(*ArrayType).NewArray(1)
	sv, _ := s.Get(0)
	assert.True(t, sv.IsNull())

	_, err := s.Get(5)
	assert.Error(t, err)
}

func TestArray_Append(t *testing.T) {
	reg := loadTestDump(t)
	item := newInstance(t, reg, "com.example.Item")

	items, _ := reg.Resolve("[Lcom.example.Item;")
	a := items.(*ArrayType).NewArray(0)
	a.Reserve(8)
	assert.Equal(t, 0, a.Len())

	require.NoError(t, a.Append(ObjectValue(item)))
	assert.Error(t, a.Append(Int(1)))
	require.NoError(t, a.Append(Null()))
	require.Equal(t, 3, a.Len())

	bad, _ := a.Get(1)
	assert.True(t, bad.IsNull(), "a rejected element keeps its slot")

	ints, _ := reg.Resolve("[Ljava.lang.Integer;")
	n := ints.(*ArrayType).NewArray(0)
	assert.Error(t, n.Append(Str("x")))
	require.NoError(t, n.Append(Int(4)))
	assert.Equal(t, []Value{Int(0), Int(4)}, n.Values())
}

func TestCollection_MapAndMultiset(t *testing.T) {
	mt, _ := ContainerOf("java.util.HashMap")
	m := mt.NewCollection()
	m.Put(Str("a"), Int(1))
	m.Put(Str("b"), Int(2))
	m.Put(Str("a"), Int(3))
	assert.Equal(t, 2, m.Len())
	v, ok := m.Lookup(Str("a"))
	require.True(t, ok)
	assert.Equal(t, Int(3), v)

	st, _ := ContainerOf("com.google.common.collect.Multiset")
	s := st.NewCollection()
	s.PutCount(Str("x"), 4)
	assert.Equal(t, 4, s.Entries()[0].Count)

	_, err := m.Index(0)
	assert.Error(t, err)
}
