package shadow

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDump = `CL-com.example.Entity+com.threerings.export.Exportable
	name Ljava.lang.String;
	id I
CLfcom.example.Player:com.example.Entity+com.threerings.export.Exportable+java.lang.Comparable
	score J
	inventory [Lcom.example.Item;
	grid [[F
	tags Ljava.util.ArrayList;
	home Lcom.example.World$Region;
CL-com.example.Item
	count S
	_label Ljava.lang.String;
ENfcom.example.Color
IF-com.example.Shape
CL-com.example.World
CL-com.example.World$Region:com.example.Entity
	_name Ljava.lang.String;
ANfcom.example.Marker
`

func loadTestDump(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	reg, err := ParseDump(strings.NewReader(testDump), opts...)
	require.NoError(t, err)
	return reg
}

func TestRegistry_Bootstrap(t *testing.T) {
	reg := NewRegistry()
	for i, name := range BootstrapNames {
		tmpl, ok := reg.Bootstrap(i + 1)
		require.True(t, ok)
		assert.Equal(t, name, tmpl.Name())
		assert.True(t, tmpl.IsPrimitive())
	}
	integer, _ := reg.Bootstrap(6)
	assert.Equal(t, "java.lang.Integer", integer.Name())
	assert.Equal(t, KindInt, integer.PrimitiveKind())

	_, ok := reg.Bootstrap(9)
	assert.False(t, ok)

	assert.False(t, reg.ObjectTemplate().Sealed())
	assert.True(t, reg.StringTemplate().Sealed())
	assert.False(t, reg.StringTemplate().IsPrimitive())
	assert.Equal(t, 10, reg.Len())
}

func TestParseDump_Headers(t *testing.T) {
	reg := loadTestDump(t)

	player, ok := reg.Lookup("com.example.Player")
	require.True(t, ok)
	assert.Equal(t, TemplateClass, player.Kind())
	assert.True(t, player.Sealed())
	assert.Equal(t, "com.example.Entity", player.BaseName())
	assert.Equal(t, []string{"com.threerings.export.Exportable", "java.lang.Comparable"}, player.InterfaceNames())

	entity, _ := reg.Lookup("com.example.Entity")
	assert.False(t, entity.Sealed())
	assert.Equal(t, []string{ExportableClass}, entity.InterfaceNames())
	assert.Same(t, entity, player.Base())

	color, _ := reg.Lookup("com.example.Color")
	assert.Equal(t, TemplateEnum, color.Kind())
	shape, _ := reg.Lookup("com.example.Shape")
	assert.Equal(t, TemplateInterface, shape.Kind())
	marker, _ := reg.Lookup("com.example.Marker")
	assert.Equal(t, TemplateAnnotation, marker.Kind())
}

func TestParseDump_FieldTypes(t *testing.T) {
	reg := loadTestDump(t)
	player, _ := reg.Lookup("com.example.Player")

	score, ok := player.Field("score")
	require.True(t, ok)
	assert.Equal(t, "java.lang.Long", score.Type.Signature())

	inv, _ := player.Field("inventory")
	arr, ok := inv.Type.(*ArrayType)
	require.True(t, ok)
	item, _ := reg.Lookup("com.example.Item")
	assert.Same(t, item, arr.Elem())

	grid, _ := player.Field("grid")
	outer := grid.Type.(*ArrayType)
	assert.Equal(t, "[[F", outer.Signature())
	inner := outer.Elem().(*ArrayType)
	assert.Equal(t, "[F", inner.Signature())
	assert.Equal(t, "java.lang.Float", inner.Elem().Signature())

	tags, _ := player.Field("tags")
	c, ok := tags.Type.(*ContainerType)
	require.True(t, ok)
	assert.Equal(t, ContainerList, c.Kind())

	// Forward reference to a class declared further down.
	home, _ := player.Field("home")
	region, _ := reg.Lookup("com.example.World$Region")
	assert.Same(t, region, home.Type)
	assert.Empty(t, reg.Fallbacks())
}

func TestParseDump_Errors(t *testing.T) {
	tests := []struct {
		name string
		dump string
	}{
		{"field before header", "\tx I\n"},
		{"bad kind", "XX-com.Foo\n"},
		{"bad sealed flag", "CLxcom.Foo\n"},
		{"empty name", "CL-:com.Base\n"},
		{"bad field line", "CL-com.Foo\n\tonlyname\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDump(strings.NewReader(tt.dump))
			var de *DumpError
			require.ErrorAs(t, err, &de)
			assert.Greater(t, de.Line, 0)
		})
	}
}

func TestRegistry_LoadSeveralDumps(t *testing.T) {
	reg, err := ParseDump(strings.NewReader("CL-com.a.A\n\tarr [Lcom.b.B;\n\tone Lcom.b.B;\n"))
	require.NoError(t, err)
	early := reg.Template("com.b.B")
	require.True(t, early.IsFallback())

	require.NoError(t, reg.Load(strings.NewReader("CLfcom.b.B:com.b.Base\n\tx I\nCL-com.b.Base\n")))

	b, ok := reg.Lookup("com.b.B")
	require.True(t, ok)
	assert.Same(t, early, b)
	assert.False(t, b.IsFallback())
	assert.True(t, b.Sealed())
	assert.Empty(t, reg.Fallbacks())

	x, ok := b.Field("x")
	require.True(t, ok)
	assert.Equal(t, "java.lang.Integer", x.Type.Signature())
	base, _ := reg.Lookup("com.b.Base")
	assert.Same(t, base, b.Base())

	a, _ := reg.Lookup("com.a.A")
	one, _ := a.Field("one")
	assert.Same(t, b, one.Type)
	arr, _ := a.Field("arr")
	assert.Same(t, b, arr.Type.(*ArrayType).Elem())
	resolved, err := reg.Resolve("[Lcom.b.B;")
	require.NoError(t, err)
	assert.Same(t, b, resolved.(*ArrayType).Elem())

	// Instances cloned from the filled template carry its fields.
	in, err := b.Clone()
	require.NoError(t, err)
	require.NoError(t, in.Set("x", Int(5)))
	assert.Error(t, in.Set("x", Str("five")))
}

func TestRegistry_LoadRejectsRedeclaration(t *testing.T) {
	reg := loadTestDump(t)
	err := reg.Load(strings.NewReader("CL-com.example.Fresh\n\n\tn I\nCL-com.example.Item\n"))
	var de *DumpError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Line)
	assert.Equal(t, "com.example.Item", de.Text)
	_, ok := reg.Lookup("com.example.Fresh")
	assert.False(t, ok, "a rejected dump adds nothing")

	_, err = ParseDump(strings.NewReader("CL-com.x.Dup\nEN-com.x.Dup\n"))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Line)

	// Bootstrap classes may appear in a dump without replacing the built-ins.
	require.NoError(t, reg.Load(strings.NewReader("CLfjava.lang.String\n")))
	str, _ := reg.Lookup(StringClass)
	assert.Same(t, reg.StringTemplate(), str)
}

func TestRegistry_FallbackTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var reported []string
	reg := NewRegistry(WithLogger(logger), WithUnknownHandler(func(e *UnknownClassError) {
		reported = append(reported, e.Name)
	}))

	a := reg.Template("com.example.Missing")
	b := reg.Template("Lcom/example/Missing;")
	assert.Same(t, a, b)
	assert.True(t, a.IsFallback())
	assert.False(t, a.Sealed())
	assert.Empty(t, a.Fields())

	assert.Equal(t, []string{"com.example.Missing"}, reported)
	assert.Contains(t, buf.String(), "com.example.Missing")
	assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"))
}

func TestRegistry_Resolve(t *testing.T) {
	reg := loadTestDump(t)

	tests := []struct {
		sig  string
		want string
	}{
		{"I", "java.lang.Integer"},
		{"Z", "java.lang.Boolean"},
		{"Ljava.lang.String;", "java.lang.String"},
		{"com.example.Item", "com.example.Item"},
		{"Lcom/example/Item;", "com.example.Item"},
		{"java.util.HashMap", "java.util.HashMap"},
		{"[I", "[I"},
		{"[Ljava.lang.Integer;", "[Ljava.lang.Integer;"},
		{"[[Lcom.example.Item;", "[[Lcom.example.Item;"},
	}
	for _, tt := range tests {
		got, err := reg.Resolve(tt.sig)
		require.NoError(t, err, tt.sig)
		assert.Equal(t, tt.want, got.Signature(), tt.sig)
	}

	a1, _ := reg.Resolve("[I")
	a2, _ := reg.Resolve("[I")
	assert.Same(t, a1, a2)

	_, err := reg.Resolve("")
	assert.Error(t, err)
	_, err = reg.Resolve("[")
	assert.Error(t, err)
	_, err = reg.Resolve("Q")
	assert.Error(t, err)
}

func TestContainerOf(t *testing.T) {
	tests := []struct {
		name string
		kind ContainerKind
	}{
		{"java.util.List", ContainerList},
		{"java.util.ArrayList", ContainerList},
		{"java.util.Collection", ContainerList},
		{"java.util.Set", ContainerSet},
		{"java.util.HashSet", ContainerSet},
		{"java.util.Map", ContainerMap},
		{"com.samskivert.util.LRUHashMap", ContainerMap},
		{"com.samskivert.util.HashIntMap", ContainerMap},
		{"com.google.common.collect.Multiset", ContainerMultiset},
		{"com.google.common.collect.ListMultimap", ContainerMultimap},
	}
	for _, tt := range tests {
		c, ok := ContainerOf(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.kind, c.Kind(), tt.name)
		assert.True(t, c.Sealed(), tt.name)
	}

	am, ok := ContainerOf(ArgumentMapClass)
	require.True(t, ok)
	assert.Equal(t, ContainerMap, am.Kind())
	assert.False(t, am.Sealed())

	_, ok = ContainerOf("com.example.Item")
	assert.False(t, ok)
}

func TestTemplate_IsA(t *testing.T) {
	reg := loadTestDump(t)
	player, _ := reg.Lookup("com.example.Player")
	entity, _ := reg.Lookup("com.example.Entity")
	item, _ := reg.Lookup("com.example.Item")

	assert.True(t, player.IsA(entity))
	assert.True(t, player.IsA(player))
	assert.False(t, entity.IsA(player))
	assert.False(t, item.IsA(entity))
	assert.True(t, item.IsA(reg.ObjectTemplate()))

	assert.True(t, player.Implements(ExportableClass))
	assert.True(t, player.Implements("java.lang.Comparable"))
	assert.False(t, item.Implements(ExportableClass))

	fb := reg.Template("com.example.Unknown")
	assert.True(t, fb.IsA(entity))
}

func TestTemplate_Outer(t *testing.T) {
	reg := loadTestDump(t)
	region, _ := reg.Lookup("com.example.World$Region")
	world, _ := reg.Lookup("com.example.World")
	assert.Same(t, world, region.Outer())
	assert.Nil(t, world.Outer())

	orphan := reg.Template("com.example.Gone$Inner")
	assert.Nil(t, orphan.Outer())
	_, ok := reg.Lookup("com.example.Gone")
	assert.False(t, ok, "Outer must not synthesize templates")

	require.NoError(t, reg.Load(strings.NewReader("CL-com.example.Gone\n")))
	gone, _ := reg.Lookup("com.example.Gone")
	assert.Same(t, gone, orphan.Outer())
}

func TestTemplate_EnumInterning(t *testing.T) {
	reg := loadTestDump(t)
	color, _ := reg.Lookup("com.example.Color")

	red1, err := color.Enum("RED")
	require.NoError(t, err)
	red2, err := color.Enum("RED")
	require.NoError(t, err)
	blue, err := color.Enum("BLUE")
	require.NoError(t, err)

	assert.Same(t, red1, red2)
	assert.NotSame(t, red1, blue)
	assert.Equal(t, "com.example.Color.RED", red1.String())
	assert.Equal(t, []string{"RED", "BLUE"}, color.EnumNames())

	_, err = color.Clone()
	assert.Error(t, err)

	item, _ := reg.Lookup("com.example.Item")
	_, err = item.Enum("X")
	assert.Error(t, err)
}
