package shadow

import (
	"fmt"
	"slices"
)

// ArrayType describes an array: its element type and JVM descriptor.
type ArrayType struct {
	elem Type
	sig  string
}

// NewArrayType returns the array type over elem. Wrapper elements use the
// boxed descriptor ("[Ljava.lang.Integer;"); the registry builds primitive
// descriptors ("[I") when resolving signatures.
func NewArrayType(elem Type) *ArrayType {
	return &ArrayType{elem: elem, sig: "[" + descriptor(elem)}
}

func descriptor(t Type) string {
	if a, ok := t.(*ArrayType); ok {
		return a.sig
	}
	return "L" + t.Signature() + ";"
}

// Signature implements Type.
func (a *ArrayType) Signature() string { return a.sig }

// Sealed implements Type. Arrays never carry a class descriptor.
func (a *ArrayType) Sealed() bool { return true }

// Elem returns the element type.
func (a *ArrayType) Elem() Type { return a.elem }

// NewArray allocates an array of n slots. Wrapper element slots hold the
// wrapper's zero; every other slot starts null.
func (a *ArrayType) NewArray(n int) *Array {
	arr := &Array{typ: a, elems: make([]Value, n)}
	if z := a.zero(); !z.IsNull() {
		for i := range arr.elems {
			arr.elems[i] = z
		}
	}
	return arr
}

func (a *ArrayType) zero() Value {
	if t, ok := a.elem.(*Template); ok {
		return t.Zero()
	}
	return Null()
}

// Array is a decoded array.
type Array struct {
	typ   *ArrayType
	elems []Value
}

func (a *Array) Type() *ArrayType { return a.typ }
func (a *Array) Len() int         { return len(a.elems) }

// Values returns the backing slice. Callers must not append to it.
func (a *Array) Values() []Value { return a.elems }

func (a *Array) Get(i int) (Value, error) {
	if i < 0 || i >= len(a.elems) {
		return Value{}, &SchemaError{Template: a.typ.sig, Reason: fmt.Sprintf("index %d out of range [0,%d)", i, len(a.elems))}
	}
	return a.elems[i], nil
}

// Set stores v at i. Elements are checked against the element type the way
// fields are checked against their declared type.
func (a *Array) Set(i int, v Value) error {
	if i < 0 || i >= len(a.elems) {
		return &SchemaError{Template: a.typ.sig, Reason: fmt.Sprintf("index %d out of range [0,%d)", i, len(a.elems))}
	}
	if t, ok := a.typ.elem.(*Template); ok {
		if reason := shapeMismatch(t, v); reason != "" {
			return &SchemaError{Template: a.typ.sig, Reason: fmt.Sprintf("element %d: %s", i, reason)}
		}
	}
	a.elems[i] = v
	return nil
}

// Append adds a slot holding v. A value that fails the element check leaves
// the slot at its zero and returns the *SchemaError, so indexes stay aligned
// with the stream.
func (a *Array) Append(v Value) error {
	a.elems = append(a.elems, a.typ.zero())
	return a.Set(len(a.elems)-1, v)
}

// Reserve grows the capacity for n more slots without changing the length.
func (a *Array) Reserve(n int) {
	a.elems = slices.Grow(a.elems, n)
}
