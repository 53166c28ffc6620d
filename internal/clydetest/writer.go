// Package clydetest builds Clyde streams for tests. It writes exactly the
// bytes a decoder expects and performs no schema checks of its own.
package clydetest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/Neumenon/clyde/binio"
)

// Stream versions.
const (
	Classic      uint16 = 0x1000
	Intermediate uint16 = 0x1001
	VarInt       uint16 = 0x1002
)

const magic uint32 = 0xFACEAF0E

// Writer accumulates the payload of a stream. Methods return the Writer so
// calls chain.
type Writer struct {
	version uint16
	buf     bytes.Buffer
	highest int
}

// NewWriter returns a writer using the id encoding of version.
func NewWriter(version uint16) *Writer {
	return &Writer{version: version}
}

// ID writes an object, class or field id.
func (w *Writer) ID(id int) *Writer {
	if w.version != Classic {
		w.buf.Write(binio.AppendVarInt(nil, uint64(id)))
		return w
	}
	switch {
	case w.highest < math.MaxUint8:
		w.U8(uint8(id))
	case w.highest < math.MaxUint16:
		w.U16(uint16(id))
	default:
		w.I32(int32(id))
	}
	w.highest = max(w.highest, id)
	return w
}

// Length writes a segment length.
func (w *Writer) Length(n int) *Writer {
	if w.version == VarInt {
		w.buf.Write(binio.AppendVarInt(nil, uint64(n)))
		return w
	}
	return w.I32(int32(n))
}

// Class writes the first occurrence of a class descriptor.
func (w *Writer) Class(id int, name string, flags uint8) *Writer {
	return w.ID(id).UTF(name).U8(flags)
}

// String writes a string value declared as java.lang.String: its object id
// and, when fresh is set, the string itself.
func (w *Writer) String(id int, s string, fresh bool) *Writer {
	w.ID(id)
	if fresh {
		w.UTF(s)
	}
	return w
}

// Field writes the first occurrence of a field descriptor up to its class:
// the field id and the name string with object id nameID. The caller writes
// the class descriptor next.
func (w *Writer) Field(fid, nameID int, name string) *Writer {
	return w.ID(fid).String(nameID, name, true)
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint16(nil, v))
	return w
}

func (w *Writer) I16(v int16) *Writer { return w.U16(uint16(v)) }

func (w *Writer) I32(v int32) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint32(nil, uint32(v)))
	return w
}

func (w *Writer) I64(v int64) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint64(nil, uint64(v)))
	return w
}

func (w *Writer) F32(v float32) *Writer { return w.I32(int32(math.Float32bits(v))) }
func (w *Writer) F64(v float64) *Writer { return w.I64(int64(math.Float64bits(v))) }

// UTF writes a u16 length-prefixed modified UTF-8 string.
func (w *Writer) UTF(s string) *Writer {
	b := binio.EncodeModifiedUTF8(s)
	w.U16(uint16(len(b)))
	w.buf.Write(b)
	return w
}

// Raw appends bytes as they are.
func (w *Writer) Raw(b ...byte) *Writer {
	w.buf.Write(b)
	return w
}

// Payload returns the bytes written so far.
func (w *Writer) Payload() []byte {
	return bytes.Clone(w.buf.Bytes())
}

// File returns an uncompressed stream: header plus payload.
func (w *Writer) File() []byte {
	return append(header(w.version, 0), w.buf.Bytes()...)
}

// Compressed returns a compressed stream. The payload is zlib framed unless
// rawDeflate is set.
func (w *Writer) Compressed(rawDeflate bool) ([]byte, error) {
	var z bytes.Buffer
	if rawDeflate {
		fw, err := flate.NewWriter(&z, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(w.buf.Bytes()); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
	} else {
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(w.buf.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	}
	return append(header(w.version, 0x1000), z.Bytes()...), nil
}

func header(version, flags uint16) []byte {
	b := binary.BigEndian.AppendUint32(nil, magic)
	b = binary.BigEndian.AppendUint16(b, version)
	return binary.BigEndian.AppendUint16(b, flags)
}
