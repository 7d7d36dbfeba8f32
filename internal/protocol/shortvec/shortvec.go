package shortvec

import (
	"errors"
	"fmt"
)

// MaxLen is the largest length a compact-u16 prefix can carry.
const MaxLen = 0xffff

// MaxEncodedLen is the widest compact-u16 encoding.
const MaxEncodedLen = 3

var (
	ErrShort    = errors.New("shortvec: short length prefix")
	ErrAlias    = errors.New("shortvec: non-canonical length prefix")
	ErrOverflow = errors.New("shortvec: length prefix overflows u16")
	ErrTooLong  = errors.New("shortvec: length exceeds u16")
)

// EncodedLen returns the number of bytes AppendLen writes for n.
func EncodedLen(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

// AppendLen appends the compact-u16 encoding of n to dst.
func AppendLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > MaxLen {
		return dst, fmt.Errorf("%w: %d", ErrTooLong, n)
	}
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b), nil
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeLen reads a compact-u16 length from the front of b and reports how
// many bytes it consumed.
func DecodeLen(b []byte) (int, int, error) {
	var v uint32
	for i := 0; i < MaxEncodedLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrShort
		}
		c := b[i]
		// A zero continuation byte encodes the same value in fewer bytes.
		if i > 0 && c == 0 {
			return 0, 0, ErrAlias
		}
		if i == MaxEncodedLen-1 && c > 0x03 {
			return 0, 0, ErrOverflow
		}
		v |= uint32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return int(v), i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}
