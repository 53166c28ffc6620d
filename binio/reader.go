package binio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Reader reads big-endian primitives and tracks the absolute byte offset.
type Reader struct {
	r   *bufio.Reader
	off int64
	buf [8]byte
}

// NewReader wraps r. An existing *bufio.Reader is used as is.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// NewBytesReader reads from an in-memory buffer.
func NewBytesReader(b []byte) *Reader {
	return NewReader(bytes.NewReader(b))
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.off
}

// More reports whether at least one more byte can be read.
func (r *Reader) More() bool {
	_, err := r.r.Peek(1)
	return err == nil
}

// ReadFull reads exactly n bytes.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	if n < 0 {
		return nil, NewFormatError(r.off, ErrTruncated, "negative byte count")
	}
	b := make([]byte, n)
	if err := r.fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadAll consumes the rest of the input.
func (r *Reader) ReadAll() ([]byte, error) {
	b, err := io.ReadAll(r.r)
	r.off += int64(len(b))
	if err != nil {
		return nil, NewFormatError(r.off, err, "read remaining input")
	}
	return b, nil
}

func (r *Reader) fill(b []byte) error {
	start := r.off
	n, err := io.ReadFull(r.r, b)
	r.off += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return NewFormatError(start, ErrTruncated, "")
		}
		return NewFormatError(start, err, "")
	}
	return nil
}

// ============================================================
// Fixed-width values
// ============================================================

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	start := r.off
	b, err := r.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, NewFormatError(start, ErrTruncated, "")
		}
		return 0, NewFormatError(start, err, "")
	}
	r.off++
	return b, nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	b, err := r.ReadU8()
	return int8(b), err
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	return b != 0, err
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadChar reads a UTF-16 code unit.
func (r *Reader) ReadChar() (uint16, error) {
	return r.ReadU16()
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.fill(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.buf[:8]), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}
