package shadow

import (
	"strings"
	"sync"
	"sync/atomic"
)

// TemplateKind is the declaration kind of a class in the schema dump.
type TemplateKind uint8

const (
	TemplateClass TemplateKind = iota
	TemplateInterface
	TemplateEnum
	TemplateAnnotation
)

// String returns the two-letter dump code.
func (k TemplateKind) String() string {
	switch k {
	case TemplateClass:
		return "CL"
	case TemplateInterface:
		return "IF"
	case TemplateEnum:
		return "EN"
	case TemplateAnnotation:
		return "AN"
	default:
		return "??"
	}
}

// ParseTemplateKind parses a two-letter dump code.
func ParseTemplateKind(code string) (TemplateKind, bool) {
	switch code {
	case "CL":
		return TemplateClass, true
	case "IF":
		return TemplateInterface, true
	case "EN":
		return TemplateEnum, true
	case "AN":
		return TemplateAnnotation, true
	}
	return 0, false
}

// Type is anything a value can be decoded as: a *Template, an *ArrayType or
// a *ContainerType.
type Type interface {
	// Signature is the class name or array descriptor.
	Signature() string

	// Sealed types are used as is; unsealed ones are followed by a class
	// descriptor in the stream naming the concrete type.
	Sealed() bool
}

// Field is one declared field of a template.
type Field struct {
	Name      string
	Signature string
	Type      Type // resolved after the whole dump is loaded
}

// Template is the schema of one class. Templates are created by a Registry
// and never change after the dump that declared them has been loaded; a
// fallback is filled in place when a later dump declares it. The lazily
// resolved links and the enum intern table are safe for concurrent use.
type Template struct {
	name       string
	kind       TemplateKind
	sealed     bool
	prim       ValueKind // non-null for the eight wrapper classes
	fallback   bool
	baseName   string
	ifaceNames []string
	fields     []*Field
	fieldIdx   map[string]int
	reg        *Registry

	baseOnce  sync.Once
	base      *Template
	ifaceOnce sync.Once
	ifaces    []*Template
	outer     atomic.Pointer[Template]

	enumMu    sync.Mutex
	enums     map[string]*EnumConst
	enumOrder []string
}

func newTemplate(reg *Registry, name string, kind TemplateKind, sealed bool, base string, ifaces []string) *Template {
	return &Template{
		name:       name,
		kind:       kind,
		sealed:     sealed,
		baseName:   base,
		ifaceNames: ifaces,
		fieldIdx:   make(map[string]int),
		reg:        reg,
	}
}

// adopt turns the fallback t into the class declared by d. t keeps its
// identity so field types, array types and base links taken while it was a
// fallback stay valid. The registry lock must be held.
func (t *Template) adopt(d *Template) {
	t.kind = d.kind
	t.sealed = d.sealed
	t.baseName = d.baseName
	t.ifaceNames = d.ifaceNames
	t.fields = d.fields
	t.fieldIdx = d.fieldIdx
	t.fallback = false
	t.baseOnce = sync.Once{}
	t.base = nil
	t.ifaceOnce = sync.Once{}
	t.ifaces = nil
}

// bootstrap reports whether t is one of the classes every registry starts
// with.
func (t *Template) bootstrap() bool {
	return t.IsPrimitive() || t.name == ObjectClass || t.name == StringClass
}

func (t *Template) addField(name, sig string) {
	if i, ok := t.fieldIdx[name]; ok {
		t.fields[i].Signature = sig
		return
	}
	t.fieldIdx[name] = len(t.fields)
	t.fields = append(t.fields, &Field{Name: name, Signature: sig})
}

// Name returns the qualified class name.
func (t *Template) Name() string { return t.name }

// Signature implements Type.
func (t *Template) Signature() string { return t.name }

// Sealed implements Type.
func (t *Template) Sealed() bool { return t.sealed }

func (t *Template) Kind() TemplateKind { return t.kind }

// IsPrimitive reports whether t is one of the eight wrapper classes, which
// are read without an object id.
func (t *Template) IsPrimitive() bool { return t.prim != KindNull }

// PrimitiveKind returns the value kind of a wrapper class, or KindNull.
func (t *Template) PrimitiveKind() ValueKind { return t.prim }

// IsFallback reports whether t was synthesized for an unknown name.
func (t *Template) IsFallback() bool { return t.fallback }

func (t *Template) IsEnum() bool { return t.kind == TemplateEnum }

// Registry returns the registry that owns t.
func (t *Template) Registry() *Registry { return t.reg }

// BaseName returns the declared base class name, or "".
func (t *Template) BaseName() string { return t.baseName }

// InterfaceNames returns the declared interface names.
func (t *Template) InterfaceNames() []string { return t.ifaceNames }

// Base returns the base class template, or nil. An undeclared base name
// resolves to a fallback template.
func (t *Template) Base() *Template {
	t.baseOnce.Do(func() {
		if t.baseName != "" && t.reg != nil {
			t.base = t.reg.Template(t.baseName)
		}
	})
	return t.base
}

// Interfaces returns the declared interface templates.
func (t *Template) Interfaces() []*Template {
	t.ifaceOnce.Do(func() {
		if t.reg == nil {
			return
		}
		t.ifaces = make([]*Template, 0, len(t.ifaceNames))
		for _, n := range t.ifaceNames {
			t.ifaces = append(t.ifaces, t.reg.Template(n))
		}
	})
	return t.ifaces
}

// Outer returns the template of the enclosing class for a nested class name
// (Outer$Inner), or nil when the name is not nested or the enclosing class
// is not in the registry. Unlike Base it never synthesizes a template.
func (t *Template) Outer() *Template {
	if o := t.outer.Load(); o != nil {
		return o
	}
	i := strings.LastIndexByte(t.name, '$')
	if i <= 0 || t.reg == nil {
		return nil
	}
	o, ok := t.reg.Lookup(t.name[:i])
	if !ok {
		return nil
	}
	t.outer.Store(o)
	return o
}

// Fields returns the fields declared by t itself, in dump order.
func (t *Template) Fields() []*Field { return t.fields }

// Field returns a field declared by t itself.
func (t *Template) Field(name string) (*Field, bool) {
	i, ok := t.fieldIdx[name]
	if !ok {
		return nil, false
	}
	return t.fields[i], true
}

// FindField looks name up on t and then along the base chain, returning the
// declaring template.
func (t *Template) FindField(name string) (*Template, *Field, bool) {
	for c := t; c != nil; c = c.Base() {
		if f, ok := c.Field(name); ok {
			return c, f, true
		}
	}
	return nil, nil, false
}

// IsA reports whether t is other or derives from it through its base chain
// or interfaces. Every template is a java.lang.Object. Fallback templates
// carry no hierarchy, so they are accepted on either side.
func (t *Template) IsA(other *Template) bool {
	if t == nil || other == nil {
		return false
	}
	if t == other || other.name == ObjectClass || t.fallback || other.fallback {
		return true
	}
	return t.derives(other.name, make(map[*Template]bool))
}

// Implements reports whether t or an ancestor declares the named interface.
func (t *Template) Implements(name string) bool {
	return t.derives(name, make(map[*Template]bool))
}

func (t *Template) derives(name string, seen map[*Template]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true
	if t.name == name {
		return true
	}
	for _, n := range t.ifaceNames {
		if n == name {
			return true
		}
	}
	// Interfaces outside the dump cannot contribute ancestors; look them up
	// without synthesizing fallbacks.
	if t.reg != nil {
		for _, n := range t.ifaceNames {
			if i, ok := t.reg.Lookup(n); ok && i.derives(name, seen) {
				return true
			}
		}
	}
	return t.Base().derives(name, seen)
}

// Zero returns the default value of a field of this type: the zero of a
// wrapper class, null otherwise.
func (t *Template) Zero() Value {
	switch t.prim {
	case KindBool:
		return Bool(false)
	case KindByte:
		return Byte(0)
	case KindChar:
		return Char(0)
	case KindShort:
		return Short(0)
	case KindInt:
		return Int(0)
	case KindLong:
		return Long(0)
	case KindFloat:
		return Float(0)
	case KindDouble:
		return Double(0)
	}
	return Null()
}

// Clone returns a fresh instance. Enum templates cannot be cloned; their
// values are interned constants.
func (t *Template) Clone() (*Instance, error) {
	if t.kind == TemplateEnum {
		return nil, &SchemaError{Template: t.name, Reason: "cannot clone an enum template"}
	}
	return &Instance{tmpl: t}, nil
}

func (t *Template) String() string {
	return "Template[" + t.kind.String() + " " + t.name + "]"
}
