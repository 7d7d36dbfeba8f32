package convert

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/danmuck/txwire/internal/testutil/testlog"
	"github.com/danmuck/txwire/internal/testutil/txtest"
)

func TestPacketRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, before := range []*protocol.Transaction{txtest.Legacy(t), txtest.V0(t)} {
		after, ok := TransactionFromPacket(PacketFromTransaction(before))
		if !ok {
			t.Fatalf("%s: expected decode to succeed", before.Message.Version)
		}
		if !reflect.DeepEqual(before, after) {
			t.Fatalf("%s: round-trip mismatch:\n got=%+v\nwant=%+v", before.Message.Version, after, before)
		}
	}
}

func TestPacketRoundTripThroughProtobuf(t *testing.T) {
	testlog.Start(t)
	before := txtest.V0(t)
	wire, err := packet.UnmarshalProto(PacketFromTransaction(before).MarshalProto())
	if err != nil {
		t.Fatalf("unmarshal proto: %v", err)
	}
	after, ok := TransactionFromPacket(wire)
	if !ok || !reflect.DeepEqual(before, after) {
		t.Fatalf("round-trip through protobuf failed: ok=%v", ok)
	}
}

func TestEncodeSetsSizeAndDefaults(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	want, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	p := PacketFromTransaction(tx)
	if !bytes.Equal(p.Data, want) {
		t.Fatalf("packet data differs from binary encoding")
	}
	if p.Meta == nil {
		t.Fatalf("expected meta on encoded packet")
	}
	if p.Meta.Size != uint64(len(want)) {
		t.Fatalf("expected meta size %d, got %d", len(want), p.Meta.Size)
	}
	if p.Meta.Addr != "" || p.Meta.Port != 0 || p.Meta.Flags != nil || p.Meta.SenderStake != 0 {
		t.Fatalf("expected default meta fields, got %+v", p.Meta)
	}
}

func TestEncodeIsCapacityUnbound(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	tx.Message.Instructions[0].Data = make([]byte, 4*PacketDataSize)
	p := PacketFromTransaction(tx)
	if len(p.Data) <= PacketDataSize || p.Meta.Size != uint64(len(p.Data)) {
		t.Fatalf("expected unbounded encode, got len=%d size=%d", len(p.Data), p.Meta.Size)
	}
}

func TestPacketFromTransactionPanicsOnUnrepresentable(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	tx.Message.AddressTableLookups = []protocol.AddressTableLookup{{}}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	PacketFromTransaction(tx)
}

func TestEncodePacketReturnsError(t *testing.T) {
	testlog.Start(t)
	if _, err := EncodePacket(nil); !errors.Is(err, protocol.ErrNilTransaction) {
		t.Fatalf("expected ErrNilTransaction, got %v", err)
	}
}

func TestDecodeEmptyPacketWithoutMeta(t *testing.T) {
	testlog.Start(t)
	if tx, ok := TransactionFromPacket(packet.Packet{}); ok || tx != nil {
		t.Fatalf("expected absent transaction, got %+v", tx)
	}
}

func TestDecodeWithoutMetaUsesCopiedBytes(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	data, _ := tx.MarshalBinary()
	got, ok := TransactionFromPacket(packet.Packet{Data: data})
	if !ok || !reflect.DeepEqual(tx, got) {
		t.Fatalf("expected meta-less packet to decode, ok=%v", ok)
	}
}

func TestDecodeTruncatesBeyondCapacity(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	tx.Message.Instructions[0].Data = make([]byte, 2*PacketDataSize)
	p := PacketFromTransaction(tx)

	_, res, err := Decoder{}.Decode(p)
	if res.Copied != PacketDataSize || res.Truncated != len(p.Data)-PacketDataSize {
		t.Fatalf("unexpected copy result: %+v", res)
	}
	if !errors.Is(err, ErrSizeExceedsCapacity) {
		t.Fatalf("expected ErrSizeExceedsCapacity, got %v", err)
	}

	p.Meta = nil
	_, res, err = Decoder{}.Decode(p)
	if res.Size != PacketDataSize {
		t.Fatalf("expected size clamped to copied bytes, got %d", res.Size)
	}
	if !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeIgnoresBytesPastCapacity(t *testing.T) {
	testlog.Start(t)
	tx := txtest.V0(t)
	data, _ := tx.MarshalBinary()
	padded := append(append([]byte{}, data...), bytes.Repeat([]byte{0xee}, 3*PacketDataSize)...)

	got, ok := TransactionFromPacket(packet.Packet{Data: padded, Meta: &packet.Meta{Size: uint64(len(data))}})
	if !ok || !reflect.DeepEqual(tx, got) {
		t.Fatalf("expected decode bounded by meta size, ok=%v", ok)
	}
}

func TestDecodeNeverReadsPastMetaSize(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	data, _ := tx.MarshalBinary()
	withGarbage := append(append([]byte{}, data...), 0xff, 0xff, 0xff)

	got, ok := TransactionFromPacket(packet.Packet{Data: withGarbage, Meta: &packet.Meta{Size: uint64(len(data))}})
	if !ok || !reflect.DeepEqual(tx, got) {
		t.Fatalf("expected bytes past meta size to be ignored, ok=%v", ok)
	}

	_, err := DecodePacket(packet.Packet{Data: withGarbage})
	if !errors.Is(err, protocol.ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes without meta, got %v", err)
	}

	_, err = DecodePacket(packet.Packet{Data: data, Meta: &packet.Meta{Size: uint64(len(data) - 1)}})
	if !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated for short size, got %v", err)
	}
}

func TestDecodeRejectsSizeBeyondData(t *testing.T) {
	testlog.Start(t)
	data, _ := txtest.Legacy(t).MarshalBinary()
	_, err := DecodePacket(packet.Packet{Data: data, Meta: &packet.Meta{Size: uint64(len(data) + 1)}})
	if !errors.Is(err, ErrSizeExceedsData) {
		t.Fatalf("expected ErrSizeExceedsData, got %v", err)
	}

	_, err = DecodePacket(packet.Packet{Data: data, Meta: &packet.Meta{Size: math.MaxUint64}})
	if !errors.Is(err, ErrSizeExceedsCapacity) {
		t.Fatalf("expected ErrSizeExceedsCapacity, got %v", err)
	}
}

func TestMissingMetaSizePolicies(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	data, _ := tx.MarshalBinary()

	if _, _, err := (Decoder{MissingMetaSize: SizeZero}).Decode(packet.Packet{Data: data}); !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("SizeZero: expected ErrTruncated, got %v", err)
	}
	if _, _, err := (Decoder{MissingMetaSize: SizeCapacity}).Decode(packet.Packet{Data: data}); !errors.Is(err, protocol.ErrTrailingBytes) {
		t.Fatalf("SizeCapacity: expected ErrTrailingBytes for short tx, got %v", err)
	}

	// 202 fixed bytes + 2 byte prefix + 1028 data bytes fill the buffer exactly.
	tx.Message.Instructions[0].Data = make([]byte, 1028)
	full, _ := tx.MarshalBinary()
	if len(full) != PacketDataSize {
		t.Fatalf("fixture must fill the buffer, got %d bytes", len(full))
	}
	got, _, err := (Decoder{MissingMetaSize: SizeCapacity}).Decode(packet.Packet{Data: full})
	if err != nil || !reflect.DeepEqual(tx, got) {
		t.Fatalf("SizeCapacity: expected full buffer decode, err=%v", err)
	}
}

func TestDecodeRandomPacketsNeverPanic(t *testing.T) {
	testlog.Start(t)
	policies := []SizePolicy{SizeCopied, SizeCapacity, SizeZero}
	for seed := int64(0); seed < 1500; seed++ {
		data := txtest.RandomBytes(seed, int(seed%(2*PacketDataSize)))
		p := packet.Packet{Data: data}
		if seed%2 == 0 {
			p.Meta = &packet.Meta{Size: uint64(seed * 7 % (2 * PacketDataSize))}
		}
		tx, _, err := Decoder{MissingMetaSize: policies[seed%3]}.Decode(p)
		if err == nil && tx == nil {
			t.Fatalf("seed %d: nil transaction without error", seed)
		}
	}
}

func TestDecodeConcurrentUse(t *testing.T) {
	testlog.Start(t)
	want := txtest.V0(t)
	p := PacketFromTransaction(want)
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, ok := TransactionFromPacket(p)
				if !ok || !reflect.DeepEqual(want, got) {
					errs <- "concurrent decode mismatch"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatalf("%s", msg)
	}
}

func TestParseSizePolicy(t *testing.T) {
	for _, p := range []SizePolicy{SizeCopied, SizeCapacity, SizeZero} {
		got, err := ParseSizePolicy(p.String())
		if err != nil || got != p {
			t.Fatalf("parse %s: got=%v err=%v", p, got, err)
		}
	}
	if _, err := ParseSizePolicy("half"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
