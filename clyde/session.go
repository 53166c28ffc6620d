package clyde

import "github.com/Neumenon/clyde/shadow"

// Class descriptor flag bits.
const (
	classFinal = 0x01
	classInner = 0x02
)

// noID marks a value read without an object id. Such values are never
// cached.
const noID = -1

type fieldKey struct {
	tmpl *shadow.Template
	id   int
}

type fieldRef struct {
	name string
	typ  shadow.Type
}

// frame buffers the fields of the object currently being read.
type frame struct {
	names  []string
	values map[string]shadow.Value
}

func (f *frame) put(name string, v shadow.Value) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
}

// session is the per-stream decode state. Ids are only meaningful within
// one stream, so none of it outlives the Decoder.
type session struct {
	objects map[int]shadow.Value
	classes map[int]shadow.Type
	fields  map[fieldKey]fieldRef
	outer   map[*shadow.Template]bool
	dynamic map[*shadow.Template]Streamer
	frame   *frame
}

func newSession(reg *shadow.Registry) *session {
	s := &session{
		objects: map[int]shadow.Value{0: shadow.Null()},
		classes: make(map[int]shadow.Type, len(shadow.BootstrapNames)),
		fields:  make(map[fieldKey]fieldRef),
		outer:   make(map[*shadow.Template]bool),
		dynamic: make(map[*shadow.Template]Streamer),
	}
	for i := 1; i <= len(shadow.BootstrapNames); i++ {
		t, _ := reg.Bootstrap(i)
		s.classes[i] = t
	}
	return s
}

// Stats summarizes a decode.
type Stats struct {
	Values  int   // top-level values returned by ReadObject
	Objects int   // object ids seen, null excluded
	Classes int   // class descriptors seen, bootstrap classes excluded
	Fields  int   // distinct (class, field id) descriptors seen
	Bytes   int64 // bytes consumed after the header, decompressed
}
