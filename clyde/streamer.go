package clyde

import (
	"fmt"
	"sync"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/shadow"
)

// Streamer reads one leaf value. Leaf values carry no class descriptor or
// field segment of their own.
type Streamer interface {
	Read(r *binio.Reader) (shadow.Value, error)
}

// StreamerFunc adapts a function to Streamer.
type StreamerFunc func(r *binio.Reader) (shadow.Value, error)

// Read implements Streamer.
func (f StreamerFunc) Read(r *binio.Reader) (shadow.Value, error) { return f(r) }

// Well-known leaf signatures beyond the wrapper classes.
const (
	FileClass  = "java.io.File"
	ClassClass = "java.lang.Class"
)

// Streamers maps exact type signatures to leaf readers. The zero value is
// not usable; call NewStreamers. Streamers is safe for concurrent use.
type Streamers struct {
	mu sync.RWMutex
	m  map[string]Streamer
}

// NewStreamers returns the built-in streamers: strings, File and Class,
// the eight wrappers, the seven NIO buffers and the eight primitive arrays.
// With lenient set, strings that are not valid modified UTF-8 are decoded as
// plain UTF-8 instead of failing.
func NewStreamers(lenient bool) *Streamers {
	s := &Streamers{m: make(map[string]Streamer)}

	str := StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadUTF()
		return shadow.Str(v), err
	})
	if lenient {
		str = func(r *binio.Reader) (shadow.Value, error) {
			v, err := r.ReadUTFLenient()
			return shadow.Str(v), err
		}
	}
	s.m[shadow.StringClass] = str
	s.m[FileClass] = str
	s.m[ClassClass] = str

	for i, name := range shadow.BootstrapNames {
		s.m[name] = wrapperStreamers[i]
	}
	for name, st := range bufferStreamers {
		s.m[name] = st
	}
	for i := 0; i < len(shadow.BootstrapCodes); i++ {
		s.m["["+shadow.BootstrapCodes[i:i+1]] = primitiveArrayStreamers[i]
	}
	return s
}

// Register adds or replaces the streamer for an exact signature.
func (s *Streamers) Register(signature string, st Streamer) {
	s.mu.Lock()
	s.m[signature] = st
	s.mu.Unlock()
}

// Lookup returns the streamer registered for signature. Arrays of String
// are always decoded structurally.
func (s *Streamers) Lookup(signature string) (Streamer, bool) {
	if signature == "[L"+shadow.StringClass+";" {
		return nil, false
	}
	s.mu.RLock()
	st, ok := s.m[signature]
	s.mu.RUnlock()
	return st, ok
}

// ============================================================
// Wrappers
// ============================================================

// wrapperStreamers follow the order of shadow.BootstrapNames.
var wrapperStreamers = [8]Streamer{
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadBool()
		return shadow.Bool(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadI8()
		return shadow.Byte(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadChar()
		return shadow.Char(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadF64()
		return shadow.Double(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadF32()
		return shadow.Float(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadI32()
		return shadow.Int(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadI64()
		return shadow.Long(v), err
	}),
	StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		v, err := r.ReadI16()
		return shadow.Short(v), err
	}),
}

// ============================================================
// Buffers and primitive arrays
// ============================================================

// maxPrefetch bounds the capacity allocated up front for a counted run, so
// a corrupt count fails on truncation instead of on allocation.
const maxPrefetch = 4096

// readCounted reads an i32 element count followed by that many elements.
func readCounted[T any](r *binio.Reader, elem func() (T, error)) (shadow.Value, error) {
	start := r.Offset()
	n, err := r.ReadI32()
	if err != nil {
		return shadow.Value{}, err
	}
	if n < 0 {
		return shadow.Value{}, binio.NewFormatError(start, ErrNegativeLength, "element count")
	}
	out := make([]T, 0, min(int(n), maxPrefetch))
	for i := 0; i < int(n); i++ {
		v, err := elem()
		if err != nil {
			return shadow.Value{}, fmt.Errorf("element %d of %d: %w", i, n, err)
		}
		out = append(out, v)
	}
	return shadow.PrimitivesValue(out), nil
}

func countedStreamer[T any](elem func(r *binio.Reader) (T, error)) Streamer {
	return StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		return readCounted(r, func() (T, error) { return elem(r) })
	})
}

var (
	boolsStreamer   = countedStreamer((*binio.Reader).ReadBool)
	bytesStreamer   = countedStreamer((*binio.Reader).ReadI8)
	charsStreamer   = countedStreamer((*binio.Reader).ReadChar)
	shortsStreamer  = countedStreamer((*binio.Reader).ReadI16)
	intsStreamer    = countedStreamer((*binio.Reader).ReadI32)
	longsStreamer   = countedStreamer((*binio.Reader).ReadI64)
	floatsStreamer  = countedStreamer((*binio.Reader).ReadF32)
	doublesStreamer = countedStreamer((*binio.Reader).ReadF64)
)

var bufferStreamers = map[string]Streamer{
	"java.nio.ByteBuffer":   bytesStreamer,
	"java.nio.CharBuffer":   charsStreamer,
	"java.nio.ShortBuffer":  shortsStreamer,
	"java.nio.IntBuffer":    intsStreamer,
	"java.nio.LongBuffer":   longsStreamer,
	"java.nio.FloatBuffer":  floatsStreamer,
	"java.nio.DoubleBuffer": doublesStreamer,
}

// primitiveArrayStreamers follow the order of shadow.BootstrapCodes.
var primitiveArrayStreamers = [8]Streamer{
	boolsStreamer, bytesStreamer, charsStreamer, doublesStreamer,
	floatsStreamer, intsStreamer, longsStreamer, shortsStreamer,
}

// ============================================================
// Dynamic streamers
// ============================================================

func enumStreamer(t *shadow.Template, str Streamer) Streamer {
	return StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		start := r.Offset()
		name, err := str.Read(r)
		if err != nil {
			return shadow.Value{}, err
		}
		s, _ := name.AsString()
		if s == "" {
			return shadow.Value{}, binio.NewFormatError(start, ErrBadClass, "empty constant name for enum "+t.Name())
		}
		e, err := t.Enum(s)
		if err != nil {
			return shadow.Value{}, err
		}
		return shadow.EnumValue(e), nil
	})
}

func encodableStreamer(t *shadow.Template, hook EncodableHook) Streamer {
	return StreamerFunc(func(r *binio.Reader) (shadow.Value, error) {
		if hook == nil {
			return shadow.Value{}, &UnsupportedStructureError{Class: t.Name(), Reason: "encodable class with no decode hook"}
		}
		inst, err := t.Clone()
		if err != nil {
			return shadow.Value{}, err
		}
		if err := hook(inst, r); err != nil {
			return shadow.Value{}, fmt.Errorf("clyde: decode %s: %w", t.Name(), err)
		}
		return shadow.ObjectValue(inst), nil
	})
}
