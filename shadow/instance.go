package shadow

import (
	"fmt"
	"strings"
)

// Instance is a decoded object. It stores only the fields set on it; reads
// of other fields fall back to the base instance and then to the declared
// default.
//
// An Instance is owned by the decode that created it and is not safe for
// concurrent mutation.
type Instance struct {
	tmpl   *Template
	fields map[string]Value
	order  []string
	base   *Instance
}

// NamedValue is a field name and its value.
type NamedValue struct {
	Name  string
	Value Value
}

// Template returns the template the instance was cloned from.
func (in *Instance) Template() *Template { return in.tmpl }

// BaseInstance returns the instance holding fields owned by the base class,
// materializing it on first use. It is nil when the template has no base.
func (in *Instance) BaseInstance() *Instance {
	if in.base == nil {
		if b := in.tmpl.Base(); b != nil && b.kind != TemplateEnum {
			in.base = &Instance{tmpl: b}
		}
	}
	return in.base
}

// Has reports whether name has been set on the instance or its base chain.
func (in *Instance) Has(name string) bool {
	for c := in; c != nil; c = c.base {
		if _, ok := c.fields[name]; ok {
			return true
		}
	}
	return false
}

// Get returns a field value. Unset declared fields return their default:
// the zero of a wrapper, an empty array for array types, null otherwise. A
// name that is neither set nor declared anywhere on the chain is a
// *SchemaError.
func (in *Instance) Get(name string) (Value, error) {
	for c := in; c != nil; c = c.base {
		if v, ok := c.fields[name]; ok {
			return v, nil
		}
	}
	if _, f, ok := in.tmpl.FindField(name); ok {
		switch t := f.Type.(type) {
		case *Template:
			return t.Zero(), nil
		case *ArrayType:
			return ArrayValue(t.NewArray(0)), nil
		}
		return Null(), nil
	}
	return Value{}, &SchemaError{Template: in.tmpl.name, Field: name, Reason: "no such field"}
}

// Set writes a field, redirecting names owned by a base class to the base
// instance.
func (in *Instance) Set(name string, v Value) error {
	return in.SetField(name, v, false)
}

// SetField writes a field. Unless forceLocal is set, a name the instance's
// own template does not declare but a base class does is written to the
// base instance. Values are checked against the declared field type.
func (in *Instance) SetField(name string, v Value, forceLocal bool) error {
	if name == "" {
		return &SchemaError{Template: in.tmpl.name, Reason: "empty field name"}
	}
	_, local := in.fields[name]
	if _, own := in.tmpl.Field(name); own || local || forceLocal || in.tmpl.Base() == nil {
		if err := in.check(name, v); err != nil {
			return err
		}
		in.put(name, v)
		return nil
	}

	if base := in.BaseInstance(); base != nil {
		if _, _, declared := base.tmpl.FindField(name); declared || base.Has(name) {
			return base.SetField(name, v, false)
		}
	}
	in.put(name, v)
	return nil
}

// Assign is the bulk-assignment write used after a field segment: when the
// template declares "_name" but not "name", the value lands in "_name".
func (in *Instance) Assign(name string, v Value) error {
	if _, ok := in.tmpl.Field(name); !ok {
		if _, ok := in.tmpl.Field("_" + name); ok {
			name = "_" + name
		}
	}
	return in.SetField(name, v, false)
}

func (in *Instance) put(name string, v Value) {
	if in.fields == nil {
		in.fields = make(map[string]Value)
	}
	if _, ok := in.fields[name]; !ok {
		in.order = append(in.order, name)
	}
	in.fields[name] = v
}

// check validates v against the type the instance's own template declares
// for name. Undeclared names accept anything.
func (in *Instance) check(name string, v Value) error {
	f, ok := in.tmpl.Field(name)
	if !ok || f.Type == nil || v.IsNull() {
		return nil
	}
	fail := func(format string, args ...any) error {
		return &SchemaError{Template: in.tmpl.name, Field: name, Reason: fmt.Sprintf(format, args...)}
	}
	switch want := f.Type.(type) {
	case *Template:
		if reason := shapeMismatch(want, v); reason != "" {
			return fail("%s", reason)
		}
	case *ArrayType:
		if v.kind == KindArray && !elemCompatible(v.arr.typ.elem, want.elem) {
			return fail("declared %s, got %s", want.sig, v.arr.typ.sig)
		}
	}
	return nil
}

// shapeMismatch reports why v cannot be stored where want is declared, or
// "" when it can. Null fits everywhere. Object, interface and fallback
// templates, and JDK classes other than String, accept any value.
func shapeMismatch(want *Template, v Value) string {
	switch {
	case v.kind == KindNull:
		return ""
	case want.IsPrimitive():
		if v.kind != want.prim {
			return fmt.Sprintf("declared %s, got %s", want.name, v.kind)
		}
	case v.kind == KindObject:
		if !v.obj.tmpl.IsA(want) {
			return fmt.Sprintf("declared %s, got instance of %s", want.name, v.obj.tmpl.name)
		}
	case v.kind == KindEnum:
		if !v.enm.tmpl.IsA(want) {
			return fmt.Sprintf("declared %s, got constant of %s", want.name, v.enm.tmpl.name)
		}
	case want.name == StringClass:
		if v.kind != KindString {
			return fmt.Sprintf("declared %s, got %s", want.name, v.kind)
		}
	case want.fallback || strings.HasPrefix(want.name, "java."):
	case want.kind == TemplateClass || want.kind == TemplateEnum:
		return fmt.Sprintf("declared %s, got %s", want.name, v.kind)
	}
	return ""
}

func elemCompatible(got, want Type) bool {
	switch w := want.(type) {
	case *Template:
		g, ok := got.(*Template)
		if !ok {
			return w.name == ObjectClass
		}
		if w.IsPrimitive() || g.IsPrimitive() {
			return g.prim == w.prim
		}
		return g.IsA(w)
	case *ArrayType:
		g, ok := got.(*ArrayType)
		return ok && elemCompatible(g.elem, w.elem)
	}
	return true
}

// Names returns the fields set directly on the instance, in write order.
func (in *Instance) Names() []string {
	out := make([]string, len(in.order))
	copy(out, in.order)
	return out
}

// Fields returns every field visible on the instance: declared fields from
// the root of the base chain down to the instance's own class, each with its
// current or default value, followed by undeclared fields that were set.
func (in *Instance) Fields() []NamedValue {
	var chain []*Template
	for t := in.tmpl; t != nil; t = t.Base() {
		chain = append(chain, t)
	}
	seen := make(map[string]bool)
	var out []NamedValue
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			v, _ := in.Get(f.Name)
			out = append(out, NamedValue{Name: f.Name, Value: v})
		}
	}
	var extras func(c *Instance)
	extras = func(c *Instance) {
		if c == nil {
			return
		}
		extras(c.base)
		for _, n := range c.order {
			if !seen[n] {
				seen[n] = true
				out = append(out, NamedValue{Name: n, Value: c.fields[n]})
			}
		}
	}
	extras(in)
	return out
}

// ============================================================
// Typed accessors
// ============================================================

func (in *Instance) Bool(name string) (bool, error) {
	v, err := in.Get(name)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func (in *Instance) Int(name string) (int32, error) {
	v, err := in.Get(name)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

func (in *Instance) Long(name string) (int64, error) {
	v, err := in.Get(name)
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

func (in *Instance) Float(name string) (float32, error) {
	v, err := in.Get(name)
	if err != nil {
		return 0, err
	}
	return v.AsFloat()
}

func (in *Instance) Double(name string) (float64, error) {
	v, err := in.Get(name)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

func (in *Instance) Str(name string) (string, error) {
	v, err := in.Get(name)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// Object returns an object-valued field. A null field yields nil.
func (in *Instance) Object(name string) (*Instance, error) {
	v, err := in.Get(name)
	if err != nil || v.IsNull() {
		return nil, err
	}
	return v.AsObject()
}
