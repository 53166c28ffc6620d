package shadow

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ValueKind is the runtime shape of a decoded Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindByte
	KindChar // UTF-16 code unit
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindObject     // *Instance
	KindArray      // *Array
	KindEnum       // *EnumConst
	KindCollection // *Collection
	KindPrimitives // []bool, []int8, []uint16, []int16, []int32, []int64, []float32, []float64
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindChar:
		return "char"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	case KindCollection:
		return "collection"
	case KindPrimitives:
		return "primitives"
	default:
		return "unknown"
	}
}

// Scalar reports whether the kind is a bool or numeric primitive.
func (k ValueKind) Scalar() bool {
	return k >= KindBool && k <= KindDouble
}

// Value is a decoded value. The zero Value is null.
//
// References (objects, arrays, enums, collections) are pointers into the
// decode session, so two Values read from the same object id share the same
// pointer and compare Same.
type Value struct {
	kind ValueKind

	// Scalar payload (bool, integers, float bits)
	num uint64
	str string

	// Reference payload (only one valid based on kind)
	obj  *Instance
	arr  *Array
	enm  *EnumConst
	coll *Collection
	prim any
}

// ============================================================
// Constructors
// ============================================================

func Null() Value { return Value{} }

func Bool(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func Byte(v int8) Value     { return Value{kind: KindByte, num: uint64(v)} }
func Char(v uint16) Value   { return Value{kind: KindChar, num: uint64(v)} }
func Short(v int16) Value   { return Value{kind: KindShort, num: uint64(v)} }
func Int(v int32) Value     { return Value{kind: KindInt, num: uint64(v)} }
func Long(v int64) Value    { return Value{kind: KindLong, num: uint64(v)} }
func Float(v float32) Value { return Value{kind: KindFloat, num: uint64(math.Float32bits(v))} }
func Double(v float64) Value {
	return Value{kind: KindDouble, num: math.Float64bits(v)}
}
func Str(v string) Value { return Value{kind: KindString, str: v} }

// ObjectValue wraps an instance. A nil instance is null.
func ObjectValue(in *Instance) Value {
	if in == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: in}
}

// ArrayValue wraps an array. A nil array is null.
func ArrayValue(a *Array) Value {
	if a == nil {
		return Null()
	}
	return Value{kind: KindArray, arr: a}
}

// EnumValue wraps an interned enum constant. A nil constant is null.
func EnumValue(e *EnumConst) Value {
	if e == nil {
		return Null()
	}
	return Value{kind: KindEnum, enm: e}
}

// CollectionValue wraps a container. A nil collection is null.
func CollectionValue(c *Collection) Value {
	if c == nil {
		return Null()
	}
	return Value{kind: KindCollection, coll: c}
}

// PrimitivesValue wraps a natively typed primitive slice. Any other payload
// panics: it is a programming error in a streamer.
func PrimitivesValue(s any) Value {
	switch s.(type) {
	case []bool, []int8, []uint16, []int16, []int32, []int64, []float32, []float64:
		return Value{kind: KindPrimitives, prim: s}
	default:
		panic(fmt.Sprintf("shadow: unsupported primitive slice %T", s))
	}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value's kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) mismatch(want ValueKind) error {
	return &SchemaError{Reason: fmt.Sprintf("expected %s, got %s", want, v.kind)}
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.num != 0, nil
}

func (v Value) AsByte() (int8, error) {
	if v.kind != KindByte {
		return 0, v.mismatch(KindByte)
	}
	return int8(v.num), nil
}

func (v Value) AsChar() (uint16, error) {
	if v.kind != KindChar {
		return 0, v.mismatch(KindChar)
	}
	return uint16(v.num), nil
}

func (v Value) AsShort() (int16, error) {
	if v.kind != KindShort {
		return 0, v.mismatch(KindShort)
	}
	return int16(v.num), nil
}

func (v Value) AsInt() (int32, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return int32(v.num), nil
}

func (v Value) AsLong() (int64, error) {
	if v.kind != KindLong {
		return 0, v.mismatch(KindLong)
	}
	return int64(v.num), nil
}

func (v Value) AsFloat() (float32, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch(KindFloat)
	}
	return math.Float32frombits(uint32(v.num)), nil
}

func (v Value) AsDouble() (float64, error) {
	if v.kind != KindDouble {
		return 0, v.mismatch(KindDouble)
	}
	return math.Float64frombits(v.num), nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.str, nil
}

func (v Value) AsObject() (*Instance, error) {
	if v.kind != KindObject {
		return nil, v.mismatch(KindObject)
	}
	return v.obj, nil
}

func (v Value) AsArray() (*Array, error) {
	if v.kind != KindArray {
		return nil, v.mismatch(KindArray)
	}
	return v.arr, nil
}

func (v Value) AsEnum() (*EnumConst, error) {
	if v.kind != KindEnum {
		return nil, v.mismatch(KindEnum)
	}
	return v.enm, nil
}

func (v Value) AsCollection() (*Collection, error) {
	if v.kind != KindCollection {
		return nil, v.mismatch(KindCollection)
	}
	return v.coll, nil
}

// AsPrimitives returns the natively typed slice of a primitive array.
func (v Value) AsPrimitives() (any, error) {
	if v.kind != KindPrimitives {
		return nil, v.mismatch(KindPrimitives)
	}
	return v.prim, nil
}

// AsInt64 widens any integral kind (byte, char, short, int, long).
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindByte:
		return int64(int8(v.num)), nil
	case KindChar:
		return int64(uint16(v.num)), nil
	case KindShort:
		return int64(int16(v.num)), nil
	case KindInt:
		return int64(int32(v.num)), nil
	case KindLong:
		return int64(v.num), nil
	}
	return 0, v.mismatch(KindLong)
}

// AsFloat64 widens float and double.
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return float64(math.Float32frombits(uint32(v.num))), nil
	case KindDouble:
		return math.Float64frombits(v.num), nil
	}
	return 0, v.mismatch(KindDouble)
}

// ============================================================
// Navigation
// ============================================================

// Field returns a field of an object value.
func (v Value) Field(name string) (Value, error) {
	in, err := v.AsObject()
	if err != nil {
		return Value{}, err
	}
	return in.Get(name)
}

// Len returns the length of an array, collection, string or primitive array.
func (v Value) Len() (int, error) {
	switch v.kind {
	case KindArray:
		return v.arr.Len(), nil
	case KindCollection:
		return v.coll.Len(), nil
	case KindString:
		return len(v.str), nil
	case KindPrimitives:
		return primLen(v.prim), nil
	}
	return 0, &SchemaError{Reason: fmt.Sprintf("%s has no length", v.kind)}
}

// Index returns element i of an array, list, set or primitive array.
func (v Value) Index(i int) (Value, error) {
	switch v.kind {
	case KindArray:
		return v.arr.Get(i)
	case KindCollection:
		return v.coll.Index(i)
	case KindPrimitives:
		return primIndex(v.prim, i)
	}
	return Value{}, &SchemaError{Reason: fmt.Sprintf("%s is not indexable", v.kind)}
}

// Same reports reference identity for reference kinds and equality for
// scalars and strings.
func Same(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindObject:
		return a.obj == b.obj
	case KindArray:
		return a.arr == b.arr
	case KindEnum:
		return a.enm == b.enm
	case KindCollection:
		return a.coll == b.coll
	case KindPrimitives:
		return primSame(a.prim, b.prim)
	default:
		return a.num == b.num
	}
}

// Interface returns the value as a plain Go value: bool, int8, uint16,
// int16, int32, int64, float32, float64, string, nil, or the reference
// pointer / primitive slice.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.num != 0
	case KindByte:
		return int8(v.num)
	case KindChar:
		return uint16(v.num)
	case KindShort:
		return int16(v.num)
	case KindInt:
		return int32(v.num)
	case KindLong:
		return int64(v.num)
	case KindFloat:
		return math.Float32frombits(uint32(v.num))
	case KindDouble:
		return math.Float64frombits(v.num)
	case KindString:
		return v.str
	case KindObject:
		return v.obj
	case KindArray:
		return v.arr
	case KindEnum:
		return v.enm
	case KindCollection:
		return v.coll
	case KindPrimitives:
		return v.prim
	}
	return nil
}

// String renders scalars and a short descriptor for references.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindChar:
		return strconv.QuoteRune(rune(uint16(v.num)))
	case KindString:
		return strconv.Quote(v.str)
	case KindObject:
		return v.obj.Template().Name() + "{}"
	case KindArray:
		return fmt.Sprintf("%s[%d]", v.arr.Type().Signature(), v.arr.Len())
	case KindEnum:
		return v.enm.String()
	case KindCollection:
		return fmt.Sprintf("%s(%d)", v.coll.Type().Signature(), v.coll.Len())
	case KindPrimitives:
		return fmt.Sprintf("%T(%d)", v.prim, primLen(v.prim))
	default:
		return fmt.Sprint(v.Interface())
	}
}

// ============================================================
// Primitive slices
// ============================================================

func primLen(s any) int {
	switch p := s.(type) {
	case []bool:
		return len(p)
	case []int8:
		return len(p)
	case []uint16:
		return len(p)
	case []int16:
		return len(p)
	case []int32:
		return len(p)
	case []int64:
		return len(p)
	case []float32:
		return len(p)
	case []float64:
		return len(p)
	}
	return 0
}

func primIndex(s any, i int) (Value, error) {
	if i < 0 || i >= primLen(s) {
		return Value{}, &SchemaError{Reason: fmt.Sprintf("index %d out of range [0,%d)", i, primLen(s))}
	}
	switch p := s.(type) {
	case []bool:
		return Bool(p[i]), nil
	case []int8:
		return Byte(p[i]), nil
	case []uint16:
		return Char(p[i]), nil
	case []int16:
		return Short(p[i]), nil
	case []int32:
		return Int(p[i]), nil
	case []int64:
		return Long(p[i]), nil
	case []float32:
		return Float(p[i]), nil
	case []float64:
		return Double(p[i]), nil
	}
	return Value{}, &SchemaError{Reason: fmt.Sprintf("unsupported primitive slice %T", s)}
}

// primSame compares slice identity: same type, backing array and length.
func primSame(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	return ra.Type() == rb.Type() && ra.Len() == rb.Len() && ra.Pointer() == rb.Pointer()
}
