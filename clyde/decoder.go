package clyde

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/shadow"
)

// Decoder reads the values of one Clyde stream. It is not safe for
// concurrent use.
type Decoder struct {
	r   *binio.Reader
	hdr Header
	ids IDCodec
	reg *shadow.Registry

	streamers   *Streamers
	fieldHooks  *FieldHooks
	encHooks    *EncodableHooks
	logger      *slog.Logger
	lenient     bool
	maxElements int

	sess   *session
	values int
	base   int64
}

// Open reads the stream header from r and prepares a decoder. A compressed
// payload is inflated in full before Open returns; byte offsets reported by
// later errors are then relative to the inflated payload.
func Open(r io.Reader, reg *shadow.Registry, opts ...Option) (*Decoder, error) {
	if reg == nil {
		return nil, errors.New("clyde: nil registry")
	}
	d := &Decoder{
		reg:         reg,
		fieldHooks:  NewFieldHooks(),
		encHooks:    NewEncodableHooks(),
		logger:      slog.New(slog.DiscardHandler),
		maxElements: DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.streamers == nil {
		d.streamers = NewStreamers(d.lenient)
	}

	br := binio.NewReader(r)
	hdr, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	d.hdr = hdr
	d.r = br
	d.base = br.Offset()
	if hdr.Compressed {
		start := br.Offset()
		payload, err := br.ReadAll()
		if err != nil {
			return nil, err
		}
		raw, err := inflate(payload)
		if err != nil {
			return nil, binio.NewFormatError(start, err, "inflate payload")
		}
		d.logger.Debug("inflated payload", "compressed", len(payload), "size", len(raw))
		d.r = binio.NewBytesReader(raw)
		d.base = 0
	}
	d.ids, err = NewIDCodec(d.r, hdr.Version)
	if err != nil {
		return nil, err
	}
	d.sess = newSession(reg)
	d.logger.Debug("opened stream", "version", hdr.Version.String(), "compressed", hdr.Compressed)
	return d, nil
}

// DecodeFile opens path and reads every top-level value in it.
func DecodeFile(ctx context.Context, path string, reg *shadow.Registry, opts ...Option) ([]shadow.Value, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()

	d, err := Open(f, reg, opts...)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%s: %w", path, err)
	}
	vals, err := d.ReadAll(ctx)
	if err != nil {
		return vals, d.Header(), fmt.Errorf("%s: %w", path, err)
	}
	return vals, d.Header(), nil
}

// Header returns the stream header.
func (d *Decoder) Header() Header { return d.hdr }

// More reports whether unread bytes remain.
func (d *Decoder) More() bool { return d.r.More() }

// ReadObject reads the next top-level value, declared as java.lang.Object.
// It returns io.EOF when the stream is exhausted.
func (d *Decoder) ReadObject(ctx context.Context) (shadow.Value, error) {
	if err := ctx.Err(); err != nil {
		return shadow.Value{}, err
	}
	if !d.r.More() {
		return shadow.Value{}, io.EOF
	}
	v, err := d.ReadValue(d.reg.ObjectTemplate())
	if err != nil {
		return shadow.Value{}, err
	}
	d.values++
	return v, nil
}

// ReadAll reads top-level values until the stream is exhausted. On error it
// returns the values read so far.
func (d *Decoder) ReadAll(ctx context.Context) ([]shadow.Value, error) {
	var out []shadow.Value
	for {
		v, err := d.ReadObject(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Stats reports what the decoder has seen so far.
func (d *Decoder) Stats() Stats {
	return Stats{
		Values:  d.values,
		Objects: len(d.sess.objects) - 1,
		Classes: len(d.sess.classes) - len(shadow.BootstrapNames),
		Fields:  len(d.sess.fields),
		Bytes:   d.r.Offset() - d.base,
	}
}

// ============================================================
// Hook-facing API
// ============================================================

// Reader returns the underlying binary reader.
func (d *Decoder) Reader() *binio.Reader { return d.r }

// IDs returns the stream's id and length codec.
func (d *Decoder) IDs() IDCodec { return d.ids }

// Registry returns the schema registry.
func (d *Decoder) Registry() *shadow.Registry { return d.reg }

// Logger returns the decoder's logger.
func (d *Decoder) Logger() *slog.Logger { return d.logger }

// Field returns a buffered value of the field segment being read.
func (d *Decoder) Field(name string) (shadow.Value, bool) {
	if d.sess.frame == nil {
		return shadow.Value{}, false
	}
	v, ok := d.sess.frame.values[name]
	return v, ok
}

// SetField adds or replaces a buffered field value. The value is assigned
// to the instance with the rest of the segment.
func (d *Decoder) SetField(name string, v shadow.Value) error {
	if d.sess.frame == nil {
		return ErrNoFieldFrame
	}
	d.sess.frame.put(name, v)
	return nil
}

// FieldNames returns the buffered field names in stream order.
func (d *Decoder) FieldNames() []string {
	if d.sess.frame == nil {
		return nil
	}
	out := make([]string, len(d.sess.frame.names))
	copy(out, d.sess.frame.names)
	return out
}

// ============================================================
// Value decoding
// ============================================================

// ReadValue reads one value declared as t.
func (d *Decoder) ReadValue(t shadow.Type) (shadow.Value, error) {
	if tmpl, ok := t.(*shadow.Template); ok && tmpl.IsPrimitive() {
		return d.readLeaf(tmpl)
	}

	id, err := d.ids.ReadID()
	if err != nil {
		return shadow.Value{}, err
	}
	if v, ok := d.sess.objects[id]; ok {
		return v, nil
	}

	typ := t
	if !t.Sealed() {
		typ, err = d.readClass()
		if err != nil {
			return shadow.Value{}, err
		}
		if typ == nil {
			return shadow.Null(), nil
		}
	}

	if st := d.streamerFor(typ); st != nil {
		v, err := st.Read(d.r)
		if err != nil {
			return shadow.Value{}, err
		}
		d.cache(id, v)
		return v, nil
	}

	switch tt := typ.(type) {
	case *shadow.ArrayType:
		return d.readArray(id, tt)
	case *shadow.ContainerType:
		return d.readContainer(id, tt)
	case *shadow.Template:
		return d.readInstance(id, tt)
	}
	return shadow.Value{}, fmt.Errorf("clyde: cannot decode type %T", typ)
}

func (d *Decoder) readLeaf(t *shadow.Template) (shadow.Value, error) {
	st, ok := d.streamers.Lookup(t.Name())
	if !ok {
		return shadow.Value{}, &UnsupportedStructureError{Class: t.Name(), Reason: "no streamer for wrapper class"}
	}
	return st.Read(d.r)
}

func (d *Decoder) cache(id int, v shadow.Value) {
	if id != noID {
		d.sess.objects[id] = v
	}
}

// streamerFor returns the leaf streamer for typ, or nil when typ is decoded
// structurally. Exact signatures win, then enums, then encodable classes.
func (d *Decoder) streamerFor(typ shadow.Type) Streamer {
	if st, ok := d.streamers.Lookup(typ.Signature()); ok {
		return st
	}
	tmpl, ok := typ.(*shadow.Template)
	if !ok {
		return nil
	}
	if st, ok := d.sess.dynamic[tmpl]; ok {
		return st
	}
	var st Streamer
	switch {
	case tmpl.IsEnum():
		str, _ := d.streamers.Lookup(shadow.StringClass)
		st = enumStreamer(tmpl, str)
	case tmpl.Implements(shadow.EncodableClass):
		hook, _ := d.encHooks.Lookup(tmpl)
		st = encodableStreamer(tmpl, hook)
	}
	d.sess.dynamic[tmpl] = st
	return st
}

// readClass reads a class descriptor. A nil type means the null class.
func (d *Decoder) readClass() (shadow.Type, error) {
	start := d.r.Offset()
	id, err := d.ids.ReadID()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	if t, ok := d.sess.classes[id]; ok {
		return t, nil
	}

	name, err := d.r.ReadUTF()
	if err != nil {
		return nil, err
	}
	flags, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	typ, err := d.reg.Resolve(name)
	if err != nil {
		return nil, binio.NewFormatError(start, ErrBadClass, fmt.Sprintf("class %d %q: %v", id, name, err))
	}
	if tmpl, ok := typ.(*shadow.Template); ok {
		d.sess.outer[tmpl] = flags&classInner != 0
	}
	d.sess.classes[id] = typ
	return typ, nil
}

func (d *Decoder) readLength(what string) (int, error) {
	start := d.r.Offset()
	n, err := d.ids.ReadLength()
	if err != nil {
		return 0, err
	}
	if n > d.maxElements {
		return 0, binio.NewFormatError(start, ErrTooLarge, fmt.Sprintf("%s: %d > %d", what, n, d.maxElements))
	}
	return n, nil
}

func (d *Decoder) readArray(id int, at *shadow.ArrayType) (shadow.Value, error) {
	n, err := d.readLength(at.Signature())
	if err != nil {
		return shadow.Value{}, err
	}
	// Slots are appended as elements arrive, so a bogus length fails on
	// truncation before it is allocated.
	arr := at.NewArray(0)
	arr.Reserve(min(n, maxPrefetch))
	v := shadow.ArrayValue(arr)
	d.cache(id, v)

	for i := 0; i < n; i++ {
		ev, err := d.ReadValue(at.Elem())
		if err != nil {
			return shadow.Value{}, fmt.Errorf("%s[%d]: %w", at.Signature(), i, err)
		}
		if err := arr.Append(ev); err != nil {
			d.logger.Warn("dropped array element", "array", at.Signature(), "index", i, "error", err)
		}
	}
	return v, nil
}

func (d *Decoder) readContainer(id int, ct *shadow.ContainerType) (shadow.Value, error) {
	if ct.Kind() == shadow.ContainerMultimap {
		return shadow.Value{}, &UnsupportedStructureError{Class: ct.Signature(), Reason: "multimaps are not supported"}
	}
	n, err := d.readLength(ct.Signature())
	if err != nil {
		return shadow.Value{}, err
	}
	c := ct.NewCollection()
	v := shadow.CollectionValue(c)
	d.cache(id, v)

	obj := d.reg.ObjectTemplate()
	for i := 0; i < n; i++ {
		k, err := d.ReadValue(obj)
		if err != nil {
			return shadow.Value{}, fmt.Errorf("%s entry %d: %w", ct.Signature(), i, err)
		}
		switch ct.Kind() {
		case shadow.ContainerList, shadow.ContainerSet:
			c.Add(k)
		case shadow.ContainerMap:
			val, err := d.ReadValue(obj)
			if err != nil {
				return shadow.Value{}, fmt.Errorf("%s entry %d: %w", ct.Signature(), i, err)
			}
			c.Put(k, val)
		case shadow.ContainerMultiset:
			count, err := d.ids.ReadLength()
			if err != nil {
				return shadow.Value{}, fmt.Errorf("%s entry %d: %w", ct.Signature(), i, err)
			}
			c.PutCount(k, count)
		}
	}
	return v, nil
}

func (d *Decoder) readInstance(id int, tmpl *shadow.Template) (shadow.Value, error) {
	inst, err := tmpl.Clone()
	if err != nil {
		return shadow.Value{}, err
	}
	v := shadow.ObjectValue(inst)
	d.cache(id, v)

	if d.sess.outer[tmpl] {
		if outer := tmpl.Outer(); outer != nil {
			if _, err := d.ReadValue(d.reg.ObjectTemplate()); err != nil {
				return shadow.Value{}, fmt.Errorf("%s: outer instance: %w", tmpl.Name(), err)
			}
			d.logger.Debug("discarded outer instance", "class", tmpl.Name(), "outer", outer.Name())
		}
	}

	n, err := d.readLength(tmpl.Name() + " fields")
	if err != nil {
		return shadow.Value{}, err
	}
	if err := d.readFields(inst, n); err != nil {
		return shadow.Value{}, fmt.Errorf("%s: %w", tmpl.Name(), err)
	}
	return v, nil
}

// readFields reads a field segment of n entries into a fresh frame, runs
// the field hook for the instance's class and then assigns the buffered
// values to inst.
func (d *Decoder) readFields(inst *shadow.Instance, n int) error {
	f := &frame{values: make(map[string]shadow.Value, n)}
	for i := 0; i < n; i++ {
		ref, err := d.readFieldRef(inst.Template())
		if err != nil {
			return err
		}
		val, err := d.ReadValue(ref.typ)
		if err != nil {
			return fmt.Errorf("field %s: %w", ref.name, err)
		}
		f.put(ref.name, val)
	}

	prev := d.sess.frame
	d.sess.frame = f
	defer func() { d.sess.frame = prev }()

	if hook, ok := d.fieldHooks.Lookup(inst.Template()); ok {
		if err := hook(n, inst, d); err != nil {
			return fmt.Errorf("field hook: %w", err)
		}
	}
	for _, name := range f.names {
		if err := inst.Assign(name, f.values[name]); err != nil {
			d.logger.Warn("dropped field", "class", inst.Template().Name(), "field", name, "error", err)
		}
	}
	return nil
}

// readFieldRef reads a field id and, the first time the id is seen for the
// class, the field's name and declared type.
func (d *Decoder) readFieldRef(t *shadow.Template) (fieldRef, error) {
	fid, err := d.ids.ReadID()
	if err != nil {
		return fieldRef{}, err
	}
	key := fieldKey{tmpl: t, id: fid}
	if ref, ok := d.sess.fields[key]; ok {
		return ref, nil
	}

	start := d.r.Offset()
	nv, err := d.ReadValue(d.reg.StringTemplate())
	if err != nil {
		return fieldRef{}, fmt.Errorf("field %d name: %w", fid, err)
	}
	name, err := nv.AsString()
	if err != nil || name == "" {
		return fieldRef{}, binio.NewFormatError(start, ErrBadFieldName, fmt.Sprintf("field %d of %s", fid, t.Name()))
	}
	typ, err := d.readClass()
	if err != nil {
		return fieldRef{}, fmt.Errorf("field %s type: %w", name, err)
	}
	if typ == nil {
		return fieldRef{}, binio.NewFormatError(start, ErrBadClass, fmt.Sprintf("field %s of %s has null type", name, t.Name()))
	}
	ref := fieldRef{name: name, typ: typ}
	d.sess.fields[key] = ref
	return ref, nil
}
