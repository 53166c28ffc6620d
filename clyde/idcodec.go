package clyde

import (
	"math"

	"github.com/Neumenon/clyde/binio"
)

// IDCodec reads object, class and field ids and segment lengths. The
// encoding depends on the stream version:
//
//	version        id                         length
//	classic        u8, then u16, then i32     i32
//	intermediate   varint                     i32
//	varint         varint                     varint
//
// The classic id width grows with the highest id read so far: one byte while
// it is below 255, two bytes while it is below 65535, four bytes after that.
// The width never shrinks within a stream.
type IDCodec interface {
	ReadID() (int, error)
	ReadLength() (int, error)
}

// NewIDCodec returns the codec for v reading from r.
func NewIDCodec(r *binio.Reader, v Version) (IDCodec, error) {
	switch v {
	case VersionClassic:
		return &classicCodec{r: r}, nil
	case VersionIntermediate:
		return &intermediateCodec{r: r}, nil
	case VersionVarInt:
		return &varIntCodec{r: r}, nil
	}
	return nil, binio.NewFormatError(r.Offset(), ErrUnsupportedVersion, v.String())
}

type classicCodec struct {
	r       *binio.Reader
	highest int
}

func (c *classicCodec) ReadID() (int, error) {
	var id int
	switch {
	case c.highest < math.MaxUint8:
		b, err := c.r.ReadU8()
		if err != nil {
			return 0, err
		}
		id = int(b)
	case c.highest < math.MaxUint16:
		v, err := c.r.ReadU16()
		if err != nil {
			return 0, err
		}
		id = int(v)
	default:
		start := c.r.Offset()
		v, err := c.r.ReadI32()
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, binio.NewFormatError(start, ErrIDRange, "negative id")
		}
		id = int(v)
	}
	c.highest = max(c.highest, id)
	return id, nil
}

func (c *classicCodec) ReadLength() (int, error) {
	return readI32Length(c.r)
}

type intermediateCodec struct {
	r *binio.Reader
}

func (c *intermediateCodec) ReadID() (int, error) {
	return readVarIntValue(c.r, ErrIDRange)
}

func (c *intermediateCodec) ReadLength() (int, error) {
	return readI32Length(c.r)
}

type varIntCodec struct {
	r *binio.Reader
}

func (c *varIntCodec) ReadID() (int, error) {
	return readVarIntValue(c.r, ErrIDRange)
}

func (c *varIntCodec) ReadLength() (int, error) {
	return readVarIntValue(c.r, ErrTooLarge)
}

func readI32Length(r *binio.Reader) (int, error) {
	start := r.Offset()
	n, err := r.ReadI32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, binio.NewFormatError(start, ErrNegativeLength, "")
	}
	return int(n), nil
}

// readVarIntValue reads a varint that must fit a non-negative int32.
func readVarIntValue(r *binio.Reader, rangeErr error) (int, error) {
	start := r.Offset()
	v, err := r.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 {
		return 0, binio.NewFormatError(start, rangeErr, "value exceeds int32")
	}
	return int(v), nil
}
