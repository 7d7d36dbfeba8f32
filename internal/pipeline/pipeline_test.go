package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/danmuck/txwire/internal/protocol/schema"
	"github.com/danmuck/txwire/internal/testutil/testlog"
	"github.com/danmuck/txwire/internal/testutil/txtest"
	"github.com/rs/zerolog/log"
)

func TestPipelineRoundTrip(t *testing.T) {
	testlog.Start(t)
	p := New(Config{Node: "pipe-rt", Validate: true}, log.Logger)
	want := txtest.V0(t)
	pkt, err := p.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := p.Decode(pkt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestPipelineDecodeDropsMalformed(t *testing.T) {
	testlog.Start(t)
	p := New(Config{Node: "pipe-drop"}, log.Logger)
	if _, err := p.Decode(packet.Packet{Data: []byte{0x01}}); !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	big := packet.Packet{Data: make([]byte, 10), Meta: &packet.Meta{Size: 5000}}
	if _, err := p.Decode(big); !errors.Is(err, convert.ErrSizeExceedsCapacity) {
		t.Fatalf("expected ErrSizeExceedsCapacity, got %v", err)
	}
}

func TestPipelineValidateToggle(t *testing.T) {
	testlog.Start(t)
	tx := txtest.Legacy(t)
	tx.Signatures = nil
	pkt := convert.PacketFromTransaction(tx)

	loose := New(Config{Node: "pipe-loose"}, log.Logger)
	if _, err := loose.Decode(pkt); err != nil {
		t.Fatalf("expected structural decode to pass without validation, got %v", err)
	}

	strict := New(Config{Node: "pipe-strict", Validate: true}, log.Logger)
	var verr schema.ValidationError
	if _, err := strict.Decode(pkt); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on decode, got %v", err)
	}
	if _, err := strict.Encode(tx); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on encode, got %v", err)
	}
}

func TestPipelineEncodeReportsUnrepresentable(t *testing.T) {
	testlog.Start(t)
	p := New(Config{Node: "pipe-enc"}, log.Logger)
	tx := txtest.Legacy(t)
	tx.Message.AddressTableLookups = []protocol.AddressTableLookup{{}}
	if _, err := p.Encode(tx); !errors.Is(err, protocol.ErrLookupsOnLegacy) {
		t.Fatalf("expected ErrLookupsOnLegacy, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"oversize":  convert.ErrSizeExceedsCapacity,
		"invalid":   schema.ValidationError{Reason: "x"},
		"malformed": protocol.ErrTrailingBytes,
	}
	for want, err := range cases {
		if got := classify(err); got != want {
			t.Fatalf("classify(%v): expected %q, got %q", err, want, got)
		}
	}
}
