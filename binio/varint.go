package binio

// maxVarintShift bounds a varint to nine seven-bit groups.
const maxVarintShift = 63

// ReadVarInt reads a variable-length unsigned integer: seven bits per byte,
// low-order group first, high bit set on every byte but the last.
func (r *Reader) ReadVarInt() (uint64, error) {
	start := r.off
	var v uint64
	for shift := uint(0); shift < maxVarintShift; shift += 7 {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			if shift > 0 && b == 0 {
				return 0, NewFormatError(start, ErrMalformedVarint, "zero-valued final group")
			}
			return v, nil
		}
	}
	return 0, NewFormatError(start, ErrMalformedVarint, "more than 9 groups")
}

// AppendVarInt appends the encoding of v that ReadVarInt accepts.
func AppendVarInt(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
