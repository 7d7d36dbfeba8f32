package convert

import (
	"fmt"
	"strings"
)

// PacketDataSize is the largest transaction the transport carries: the
// IPv6 minimum MTU less the IPv6 and UDP headers.
const PacketDataSize = 1280 - 40 - 8

// Buffer is the fixed decode staging area.
type Buffer [PacketDataSize]byte

// BufferMeta tracks how many bytes of a Buffer are valid.
type BufferMeta struct {
	Size int
}

// SizePolicy picks BufferMeta.Size when a packet carries no Meta.
type SizePolicy int

const (
	// SizeCopied exposes exactly the bytes copied from the packet.
	SizeCopied SizePolicy = iota
	// SizeCapacity exposes the whole buffer, zero padding included.
	SizeCapacity
	// SizeZero exposes nothing, so meta-less packets never decode.
	SizeZero
)

// DefaultSizePolicy is used by the package-level functions.
const DefaultSizePolicy = SizeCopied

func (p SizePolicy) String() string {
	switch p {
	case SizeCopied:
		return "copied"
	case SizeCapacity:
		return "capacity"
	case SizeZero:
		return "zero"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseSizePolicy accepts the names printed by String.
func ParseSizePolicy(raw string) (SizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "copied":
		return SizeCopied, nil
	case "capacity":
		return SizeCapacity, nil
	case "zero":
		return SizeZero, nil
	default:
		return 0, fmt.Errorf("convert: unknown size policy %q", raw)
	}
}

// defaultMeta is the BufferMeta a freshly filled buffer starts with.
func (p SizePolicy) defaultMeta(copied int) BufferMeta {
	switch p {
	case SizeCapacity:
		return BufferMeta{Size: PacketDataSize}
	case SizeZero:
		return BufferMeta{}
	default:
		return BufferMeta{Size: copied}
	}
}
