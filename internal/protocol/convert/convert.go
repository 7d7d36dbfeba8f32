package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/packet"
)

var (
	ErrSizeExceedsCapacity = errors.New("convert: meta size exceeds buffer capacity")
	ErrSizeExceedsData     = errors.New("convert: meta size exceeds packet data")
)

// Decoder turns packets into transactions. The zero value uses SizeCopied.
type Decoder struct {
	MissingMetaSize SizePolicy
}

// Result describes one decode for callers that keep counters.
type Result struct {
	Copied    int
	Truncated int
	Size      int
}

// Decode copies p into a fixed buffer and decodes one transaction from the
// first BufferMeta.Size bytes.
func (d Decoder) Decode(p packet.Packet) (*protocol.Transaction, Result, error) {
	var buf Buffer
	copied := copy(buf[:], p.Data)
	res := Result{Copied: copied, Truncated: len(p.Data) - copied}

	meta := d.MissingMetaSize.defaultMeta(copied)
	if p.Meta != nil {
		meta.Size = narrowSize(p.Meta.Size)
	}
	res.Size = meta.Size

	if meta.Size > len(buf) {
		return nil, res, fmt.Errorf("%w: %d > %d", ErrSizeExceedsCapacity, meta.Size, len(buf))
	}
	// Only SizeCapacity may expose padding; a sender's size never does.
	if p.Meta != nil && meta.Size > copied {
		return nil, res, fmt.Errorf("%w: %d > %d", ErrSizeExceedsData, meta.Size, copied)
	}

	tx, err := protocol.UnmarshalTransaction(buf[:meta.Size])
	if err != nil {
		return nil, res, err
	}
	return tx, res, nil
}

// narrowSize converts a wire size to int, saturating so oversized values
// still fail the capacity check instead of wrapping.
func narrowSize(size uint64) int {
	if size > math.MaxInt {
		return math.MaxInt
	}
	return int(size)
}

// DecodePacket decodes with the default size policy and reports why a
// packet was dropped.
func DecodePacket(p packet.Packet) (*protocol.Transaction, error) {
	tx, _, err := Decoder{MissingMetaSize: DefaultSizePolicy}.Decode(p)
	return tx, err
}

// TransactionFromPacket returns the packet's transaction, or false when the
// packet should be dropped.
func TransactionFromPacket(p packet.Packet) (*protocol.Transaction, bool) {
	tx, err := DecodePacket(p)
	if err != nil {
		return nil, false
	}
	return tx, true
}

// EncodePacket serializes tx into an outbound packet. Meta.Size is the
// encoded length and every other meta field is left at its default.
func EncodePacket(tx *protocol.Transaction) (packet.Packet, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return packet.Packet{}, err
	}
	return packet.Packet{
		Data: data,
		Meta: &packet.Meta{Size: uint64(len(data))},
	}, nil
}

// PacketFromTransaction is EncodePacket for transactions that already
// passed validation. It panics if tx cannot be serialized.
func PacketFromTransaction(tx *protocol.Transaction) packet.Packet {
	p, err := EncodePacket(tx)
	if err != nil {
		panic(fmt.Sprintf("convert: serialize transaction: %v", err))
	}
	return p
}
