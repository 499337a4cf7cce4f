package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqMaxLen is the longest encoding of a 32-bit value
const vlqMaxLen = 5

// AppendVLQInt appends the VLQ encoding of v to dst. Each byte carries 7
// bits, most significant group first, with the high bit set on every byte
// but the last. Values in [-32, 96) fit in one byte; the sign is carried
// by bits 5 and 6 of the first byte.
func AppendVLQInt(dst []byte, v int32) []byte {
	for shift := uint(28); shift > 0; shift -= 7 {
		lo := -(int32(1) << (shift - 2))
		hi := int32(3) << (shift - 2)
		if v < lo || v >= hi {
			dst = append(dst, byte((v>>shift)&0x7F)|0x80)
		}
	}
	return append(dst, byte(v&0x7F))
}

// EncodeVLQInt writes the VLQ encoding of a signed integer
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [vlqMaxLen]byte
	output.Output(AppendVLQInt(buf[:0], v))
}

// EncodeVLQUint writes the VLQ encoding of an unsigned integer
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt decodes a VLQ signed integer and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}

	n := 1
	for c&0x80 != 0 {
		if n >= len(buf) {
			return 0, ErrBufferTooSmall
		}
		if n >= vlqMaxLen {
			return 0, ErrInvalidVLQ
		}
		c = uint32(buf[n])
		n++
		v = v<<7 | c&0x7F
	}

	*data = buf[n:]
	return int32(v), nil
}

// DecodeVLQUint decodes a VLQ unsigned integer and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}
