package packet

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ContentType is the media type of MarshalProto output.
const ContentType = "application/x-protobuf"

// Protobuf field numbers of the packet contract.
const (
	fieldPacketData protowire.Number = 1
	fieldPacketMeta protowire.Number = 2

	fieldMetaSize        protowire.Number = 1
	fieldMetaAddr        protowire.Number = 2
	fieldMetaPort        protowire.Number = 3
	fieldMetaFlags       protowire.Number = 4
	fieldMetaSenderStake protowire.Number = 5

	fieldFlagsDiscard      protowire.Number = 1
	fieldFlagsForwarded    protowire.Number = 2
	fieldFlagsRepair       protowire.Number = 3
	fieldFlagsSimpleVoteTx protowire.Number = 4
	fieldFlagsTpuVote      protowire.Number = 5
)

var (
	ErrMalformed = errors.New("packet: malformed protobuf")
	ErrWireType  = errors.New("packet: unexpected wire type")
)

// Flags are transport hints. The codec carries them but never acts on them.
type Flags struct {
	Discard      bool `json:"discard,omitempty"`
	Forwarded    bool `json:"forwarded,omitempty"`
	Repair       bool `json:"repair,omitempty"`
	SimpleVoteTx bool `json:"simple_vote_tx,omitempty"`
	TpuVote      bool `json:"tpu_vote,omitempty"`
}

// Meta is the transport metadata attached to a packet.
type Meta struct {
	Size        uint64 `json:"size"`
	Addr        string `json:"addr"`
	Port        uint32 `json:"port"`
	Flags       *Flags `json:"flags,omitempty"`
	SenderStake uint64 `json:"sender_stake"`
}

// Packet is the unbounded wire form of a transaction.
type Packet struct {
	Data []byte `json:"data"`
	Meta *Meta  `json:"meta,omitempty"`
}

// IsZero reports whether every field holds its default.
func (m *Meta) IsZero() bool {
	return m == nil || (m.Size == 0 && m.Addr == "" && m.Port == 0 && m.Flags == nil && m.SenderStake == 0)
}

// MarshalProto encodes p as a protobuf Packet message. Default scalar values
// are omitted; a present Meta is always written, even when empty.
func (p Packet) MarshalProto() []byte {
	var b []byte
	if len(p.Data) > 0 {
		b = protowire.AppendTag(b, fieldPacketData, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Data)
	}
	if p.Meta != nil {
		b = protowire.AppendTag(b, fieldPacketMeta, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Meta.marshalProto())
	}
	return b
}

func (m *Meta) marshalProto() []byte {
	var b []byte
	if m.Size != 0 {
		b = protowire.AppendTag(b, fieldMetaSize, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Size)
	}
	if m.Addr != "" {
		b = protowire.AppendTag(b, fieldMetaAddr, protowire.BytesType)
		b = protowire.AppendString(b, m.Addr)
	}
	if m.Port != 0 {
		b = protowire.AppendTag(b, fieldMetaPort, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Port))
	}
	if m.Flags != nil {
		b = protowire.AppendTag(b, fieldMetaFlags, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Flags.marshalProto())
	}
	if m.SenderStake != 0 {
		b = protowire.AppendTag(b, fieldMetaSenderStake, protowire.VarintType)
		b = protowire.AppendVarint(b, m.SenderStake)
	}
	return b
}

func (f *Flags) marshalProto() []byte {
	var b []byte
	for _, field := range []struct {
		num protowire.Number
		on  bool
	}{
		{fieldFlagsDiscard, f.Discard},
		{fieldFlagsForwarded, f.Forwarded},
		{fieldFlagsRepair, f.Repair},
		{fieldFlagsSimpleVoteTx, f.SimpleVoteTx},
		{fieldFlagsTpuVote, f.TpuVote},
	} {
		if field.on {
			b = protowire.AppendTag(b, field.num, protowire.VarintType)
			b = protowire.AppendVarint(b, protowire.EncodeBool(true))
		}
	}
	return b
}

// UnmarshalProto decodes a protobuf Packet message. Unknown fields are
// skipped; repeated embedded messages merge and repeated scalars keep the
// last value, as protobuf does. Data never aliases b.
func UnmarshalProto(b []byte) (Packet, error) {
	var p Packet
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch num {
		case fieldPacketData:
			if typ != protowire.BytesType {
				return wireTypeError("data", typ)
			}
			p.Data = append([]byte(nil), v...)
		case fieldPacketMeta:
			if typ != protowire.BytesType {
				return wireTypeError("meta", typ)
			}
			if p.Meta == nil {
				p.Meta = &Meta{}
			}
			return p.Meta.unmarshalProto(v)
		}
		return nil
	})
	if err != nil {
		return Packet{}, err
	}
	return p, nil
}

func (m *Meta) unmarshalProto(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch num {
		case fieldMetaSize, fieldMetaPort, fieldMetaSenderStake:
			if typ != protowire.VarintType {
				return wireTypeError("meta", typ)
			}
			switch num {
			case fieldMetaSize:
				m.Size = x
			case fieldMetaPort:
				m.Port = uint32(x)
			default:
				m.SenderStake = x
			}
		case fieldMetaAddr:
			if typ != protowire.BytesType {
				return wireTypeError("meta.addr", typ)
			}
			m.Addr = string(v)
		case fieldMetaFlags:
			if typ != protowire.BytesType {
				return wireTypeError("meta.flags", typ)
			}
			if m.Flags == nil {
				m.Flags = &Flags{}
			}
			return m.Flags.unmarshalProto(v)
		}
		return nil
	})
}

func (f *Flags) unmarshalProto(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		var dst *bool
		switch num {
		case fieldFlagsDiscard:
			dst = &f.Discard
		case fieldFlagsForwarded:
			dst = &f.Forwarded
		case fieldFlagsRepair:
			dst = &f.Repair
		case fieldFlagsSimpleVoteTx:
			dst = &f.SimpleVoteTx
		case fieldFlagsTpuVote:
			dst = &f.TpuVote
		default:
			return nil
		}
		if typ != protowire.VarintType {
			return wireTypeError("meta.flags", typ)
		}
		*dst = protowire.DecodeBool(x)
		return nil
	})
}

// walk visits every field of one message. Length-delimited values arrive in
// v, varints in x; other wire types arrive with neither set.
func walk(b []byte, visit func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := visit(num, typ, v, x); err != nil {
			return err
		}
	}
	return nil
}

func wireTypeError(field string, typ protowire.Type) error {
	return fmt.Errorf("%w: %s has wire type %d", ErrWireType, field, typ)
}
