package export

import (
	"math"
	"strconv"

	"github.com/Neumenon/clyde/shadow"
)

// Reserved keys in tree output.
const (
	KeyClass = "$class"
	KeyID    = "$id"
	KeyRef   = "$ref"
	KeyEnum  = "$enum"
	KeyName  = "$name"
	KeyItems = "$items"
	KeyKey   = "key"
	KeyValue = "value"
	KeyCount = "count"
)

// Tree converts one value to plain Go data: nil, bool, integers, floats,
// strings, primitive slices, []any and map[string]any.
func Tree(v shadow.Value) any {
	return Trees([]shadow.Value{v})[0]
}

// Trees converts several roots with one shared id space.
func Trees(vals []shadow.Value) []any {
	g := newGraph(vals)
	c := &treeConverter{g: g}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = c.value(v)
	}
	return out
}

// ============================================================
// Reference bookkeeping
// ============================================================

// graph counts how often each reference is reached so that only shared
// references get ids.
type graph struct {
	counts map[any]int
	ids    map[any]int
	next   int
}

func newGraph(roots []shadow.Value) *graph {
	g := &graph{counts: make(map[any]int), ids: make(map[any]int)}
	for _, v := range roots {
		g.visit(v)
	}
	return g
}

func (g *graph) visit(v shadow.Value) {
	key := refOf(v)
	if key == nil {
		return
	}
	g.counts[key]++
	if g.counts[key] > 1 {
		return
	}
	for _, child := range children(v) {
		g.visit(child)
	}
}

// id returns the id of a reference and whether this is its first
// occurrence. Unshared references have id 0.
func (g *graph) id(key any) (int, bool) {
	if g.counts[key] <= 1 {
		return 0, true
	}
	if id, ok := g.ids[key]; ok {
		return id, false
	}
	g.next++
	g.ids[key] = g.next
	return g.next, true
}

func refOf(v shadow.Value) any {
	switch v.Kind() {
	case shadow.KindObject:
		in, _ := v.AsObject()
		return in
	case shadow.KindArray:
		a, _ := v.AsArray()
		return a
	case shadow.KindCollection:
		c, _ := v.AsCollection()
		return c
	}
	return nil
}

func children(v shadow.Value) []shadow.Value {
	var out []shadow.Value
	switch v.Kind() {
	case shadow.KindObject:
		in, _ := v.AsObject()
		for _, nv := range in.Fields() {
			out = append(out, nv.Value)
		}
	case shadow.KindArray:
		a, _ := v.AsArray()
		out = a.Values()
	case shadow.KindCollection:
		c, _ := v.AsCollection()
		out = append(out, c.Elems()...)
		for _, e := range c.Entries() {
			out = append(out, e.Key, e.Value)
		}
	}
	return out
}

// ============================================================
// Conversion
// ============================================================

type treeConverter struct {
	g *graph
}

func (c *treeConverter) value(v shadow.Value) any {
	switch v.Kind() {
	case shadow.KindNull:
		return nil
	case shadow.KindChar:
		ch, _ := v.AsChar()
		return string(rune(ch))
	case shadow.KindFloat, shadow.KindDouble:
		f, _ := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return v.Interface()
	case shadow.KindEnum:
		e, _ := v.AsEnum()
		return map[string]any{KeyEnum: e.Template().Name(), KeyName: e.Name()}
	case shadow.KindObject:
		in, _ := v.AsObject()
		return c.object(in)
	case shadow.KindArray:
		a, _ := v.AsArray()
		return c.sequence(a, a.Type().Signature(), a.Values())
	case shadow.KindCollection:
		coll, _ := v.AsCollection()
		return c.collection(coll)
	default:
		return v.Interface()
	}
}

func (c *treeConverter) object(in *shadow.Instance) any {
	id, first := c.g.id(in)
	if !first {
		return map[string]any{KeyRef: id}
	}
	m := map[string]any{KeyClass: in.Template().Name()}
	if id > 0 {
		m[KeyID] = id
	}
	for _, nv := range in.Fields() {
		m[nv.Name] = c.value(nv.Value)
	}
	return m
}

// sequence renders an array or list-like collection. Shared sequences are
// wrapped so they can carry an id.
func (c *treeConverter) sequence(key any, class string, vals []shadow.Value) any {
	id, first := c.g.id(key)
	if !first {
		return map[string]any{KeyRef: id}
	}
	items := make([]any, len(vals))
	for i, v := range vals {
		items[i] = c.value(v)
	}
	if id == 0 {
		return items
	}
	return map[string]any{KeyID: id, KeyClass: class, KeyItems: items}
}

func (c *treeConverter) collection(coll *shadow.Collection) any {
	kind := coll.Type().Kind()
	if kind == shadow.ContainerList || kind == shadow.ContainerSet {
		return c.sequence(coll, coll.Type().Signature(), coll.Elems())
	}

	id, first := c.g.id(coll)
	if !first {
		return map[string]any{KeyRef: id}
	}
	items := make([]any, 0, coll.Len())
	for _, e := range coll.Entries() {
		entry := map[string]any{KeyKey: c.value(e.Key)}
		if kind == shadow.ContainerMultiset {
			entry[KeyCount] = e.Count
		} else {
			entry[KeyValue] = c.value(e.Value)
		}
		items = append(items, entry)
	}
	m := map[string]any{KeyClass: coll.Type().Signature(), KeyItems: items}
	if id > 0 {
		m[KeyID] = id
	}
	return m
}
