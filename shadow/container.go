package shadow

import "fmt"

// ContainerKind is the native container a collection class decodes into.
type ContainerKind uint8

const (
	ContainerList ContainerKind = iota
	ContainerSet
	ContainerMap
	ContainerMultiset
	ContainerMultimap
)

// String returns the kind name.
func (k ContainerKind) String() string {
	switch k {
	case ContainerList:
		return "list"
	case ContainerSet:
		return "set"
	case ContainerMap:
		return "map"
	case ContainerMultiset:
		return "multiset"
	case ContainerMultimap:
		return "multimap"
	default:
		return "unknown"
	}
}

// ContainerType stands in for a well-known collection class. Collections
// are decoded straight into a native Collection; no field segment applies.
type ContainerType struct {
	name       string
	kind       ContainerKind
	forceClass bool
}

// Signature implements Type.
func (c *ContainerType) Signature() string { return c.name }

// Sealed implements Type. ArgumentMap is written with a class descriptor
// even where its declared type is exact.
func (c *ContainerType) Sealed() bool { return !c.forceClass }

func (c *ContainerType) Kind() ContainerKind { return c.kind }

// NewCollection returns an empty collection of this type.
func (c *ContainerType) NewCollection() *Collection {
	return &Collection{typ: c}
}

// ArgumentMapClass is the parameter map of the config system. It is a map
// that always carries a class descriptor.
const ArgumentMapClass = "com.threerings.config.ArgumentMap"

var containers = func() map[string]*ContainerType {
	m := make(map[string]*ContainerType)
	add := func(kind ContainerKind, names ...string) {
		for _, n := range names {
			m[n] = &ContainerType{name: n, kind: kind}
		}
	}
	add(ContainerList,
		"java.util.List", "java.util.ArrayList", "java.util.LinkedList", "java.util.Collection")
	add(ContainerSet,
		"java.util.Set", "java.util.HashSet", "java.util.LinkedHashSet", "java.util.TreeSet")
	add(ContainerMap,
		"java.util.Map", "java.util.HashMap", "java.util.LinkedHashMap", "java.util.TreeMap",
		"com.samskivert.util.LRUHashMap", "com.samskivert.util.HashIntMap")
	add(ContainerMultiset,
		"com.google.common.collect.Multiset", "com.google.common.collect.HashMultiset")
	add(ContainerMultimap,
		"com.google.common.collect.Multimap", "com.google.common.collect.SetMultimap",
		"com.google.common.collect.ListMultimap")
	m[ArgumentMapClass] = &ContainerType{name: ArgumentMapClass, kind: ContainerMap, forceClass: true}
	return m
}()

// ContainerOf returns the container type standing in for a class name.
func ContainerOf(name string) (*ContainerType, bool) {
	c, ok := containers[name]
	return c, ok
}

// Entry is one map entry (Key, Value) or multiset entry (Key, Count).
type Entry struct {
	Key   Value
	Value Value
	Count int
}

// Collection is a decoded list, set, map or multiset. Entries keep stream
// order; a later entry with a key equal (Same) to an earlier one replaces
// its value.
type Collection struct {
	typ     *ContainerType
	elems   []Value
	entries []Entry
}

func (c *Collection) Type() *ContainerType { return c.typ }

// Len returns the number of elements or entries.
func (c *Collection) Len() int {
	switch c.typ.kind {
	case ContainerList, ContainerSet:
		return len(c.elems)
	default:
		return len(c.entries)
	}
}

// Add appends an element to a list or set.
func (c *Collection) Add(v Value) {
	c.elems = append(c.elems, v)
}

// Put stores a map entry.
func (c *Collection) Put(k, v Value) {
	for i := range c.entries {
		if Same(c.entries[i].Key, k) {
			c.entries[i].Value = v
			return
		}
	}
	c.entries = append(c.entries, Entry{Key: k, Value: v})
}

// PutCount stores a multiset entry.
func (c *Collection) PutCount(k Value, n int) {
	for i := range c.entries {
		if Same(c.entries[i].Key, k) {
			c.entries[i].Count = n
			return
		}
	}
	c.entries = append(c.entries, Entry{Key: k, Count: n})
}

// Elems returns the elements of a list or set.
func (c *Collection) Elems() []Value { return c.elems }

// Entries returns the entries of a map or multiset.
func (c *Collection) Entries() []Entry { return c.entries }

// Index returns element i of a list or set.
func (c *Collection) Index(i int) (Value, error) {
	if c.typ.kind != ContainerList && c.typ.kind != ContainerSet {
		return Value{}, &SchemaError{Template: c.typ.name, Reason: fmt.Sprintf("%s is not indexable", c.typ.kind)}
	}
	if i < 0 || i >= len(c.elems) {
		return Value{}, &SchemaError{Template: c.typ.name, Reason: fmt.Sprintf("index %d out of range [0,%d)", i, len(c.elems))}
	}
	return c.elems[i], nil
}

// Lookup returns the value stored under k in a map.
func (c *Collection) Lookup(k Value) (Value, bool) {
	for _, e := range c.entries {
		if Same(e.Key, k) {
			return e.Value, true
		}
	}
	return Value{}, false
}
