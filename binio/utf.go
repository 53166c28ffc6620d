package binio

import (
	"strings"
	"unicode/utf16"
)

// ReadUTF reads a u16 length-prefixed modified UTF-8 string.
func (r *Reader) ReadUTF() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	base := r.off
	b, err := r.ReadFull(int(n))
	if err != nil {
		return "", err
	}
	return DecodeModifiedUTF8(b, base)
}

// ReadUTFLenient reads like ReadUTF but falls back to plain UTF-8 when the
// bytes are not valid modified UTF-8. Invalid sequences become U+FFFD.
func (r *Reader) ReadUTFLenient() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	base := r.off
	b, err := r.ReadFull(int(n))
	if err != nil {
		return "", err
	}
	s, err := DecodeModifiedUTF8(b, base)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil
	}
	return s, nil
}

// DecodeModifiedUTF8 decodes b as written by DataOutputStream.writeUTF.
// base is the stream offset of b[0] and is only used for error reporting.
func DecodeModifiedUTF8(b []byte, base int64) (string, error) {
	i := 0
	for i < len(b) && b[i] < 0x80 {
		i++
	}
	if i == len(b) {
		return string(b), nil
	}

	units := make([]uint16, 0, len(b))
	for _, c := range b[:i] {
		units = append(units, uint16(c))
	}
	for i < len(b) {
		c := b[i]
		switch c >> 4 {
		case 0, 1, 2, 3, 4, 5, 6, 7:
			units = append(units, uint16(c))
			i++
		case 12, 13:
			if i+2 > len(b) {
				return "", NewFormatError(base+int64(i), ErrMalformedUTF, "partial character at end")
			}
			c2 := b[i+1]
			if c2&0xC0 != 0x80 {
				return "", NewFormatError(base+int64(i+1), ErrMalformedUTF, "bad continuation byte")
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(c2&0x3F))
			i += 2
		case 14:
			if i+3 > len(b) {
				return "", NewFormatError(base+int64(i), ErrMalformedUTF, "partial character at end")
			}
			c2, c3 := b[i+1], b[i+2]
			if c2&0xC0 != 0x80 || c3&0xC0 != 0x80 {
				return "", NewFormatError(base+int64(i+1), ErrMalformedUTF, "bad continuation byte")
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(c2&0x3F)<<6|uint16(c3&0x3F))
			i += 3
		default:
			return "", NewFormatError(base+int64(i), ErrMalformedUTF, "bad lead byte")
		}
	}
	return string(utf16.Decode(units)), nil
}

// EncodeModifiedUTF8 is the inverse of DecodeModifiedUTF8, without the
// length prefix. NUL and supplementary characters use the Java forms.
func EncodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u >= 0x01 && u <= 0x7F:
			out = append(out, byte(u))
		case u <= 0x7FF:
			out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
		}
	}
	return out
}
