package clyde

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/Neumenon/clyde/binio"
)

// Magic is the first word of every Clyde stream.
const Magic uint32 = 0xFACEAF0E

// compressedFlag in the header's flag word means the payload is deflated.
const compressedFlag = 0x1000

// Version selects the id and length encodings of a stream.
type Version uint16

const (
	VersionClassic      Version = 0x1000
	VersionIntermediate Version = 0x1001
	VersionVarInt       Version = 0x1002
)

// String returns the version name.
func (v Version) String() string {
	switch v {
	case VersionClassic:
		return "classic"
	case VersionIntermediate:
		return "intermediate"
	case VersionVarInt:
		return "varint"
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(v))
	}
}

// Valid reports whether v is one of the three known versions.
func (v Version) Valid() bool {
	return v >= VersionClassic && v <= VersionVarInt
}

// Header is the decoded stream header.
type Header struct {
	Version    Version
	Compressed bool
}

// ReadHeader reads and validates the 8-byte header.
func ReadHeader(r *binio.Reader) (Header, error) {
	start := r.Offset()
	magic, err := r.ReadU32()
	if err != nil {
		return Header{}, err
	}
	if magic != Magic {
		return Header{}, binio.NewFormatError(start, ErrBadMagic, fmt.Sprintf("expected 0x%08X, got 0x%08X", Magic, magic))
	}
	vpos := r.Offset()
	v, err := r.ReadU16()
	if err != nil {
		return Header{}, err
	}
	if !Version(v).Valid() {
		return Header{}, binio.NewFormatError(vpos, ErrUnsupportedVersion, fmt.Sprintf("0x%04X", v))
	}
	flags, err := r.ReadU16()
	if err != nil {
		return Header{}, err
	}
	return Header{Version: Version(v), Compressed: flags == compressedFlag}, nil
}

// inflate decompresses a payload. Streams are written with zlib framing; a
// bare deflate stream is accepted as well.
func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err == nil {
		defer zr.Close()
		return io.ReadAll(zr)
	}
	if !errors.Is(err, zlib.ErrHeader) {
		return nil, err
	}
	fr := flate.NewReader(bytes.NewReader(payload))
	defer fr.Close()
	return io.ReadAll(fr)
}
