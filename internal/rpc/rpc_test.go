package rpc

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/danmuck/txwire/internal/pipeline"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/danmuck/txwire/internal/testutil/testlog"
	"github.com/danmuck/txwire/internal/testutil/tlstest"
	"github.com/danmuck/txwire/internal/testutil/txtest"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startBufconn(t *testing.T) *Client {
	t.Helper()
	testlog.Start(t)

	lis := bufconn.Listen(1024 * 1024)
	p := pipeline.New(pipeline.Config{Node: "rpc-test", Validate: true}, log.Logger)
	srv := NewGRPCServer(p, ServerOptions{}, log.Logger)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := Dial("passthrough:///bufnet", DialOptions{
		Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Timeout = 2 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func mustBinary(t *testing.T, tx *protocol.Transaction) []byte {
	t.Helper()
	b, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestPacketCodecRoundTrip(t *testing.T) {
	client := startBufconn(t)
	ctx := context.Background()
	for _, want := range []*protocol.Transaction{txtest.Legacy(t), txtest.V0(t)} {
		pkt, err := client.Encode(ctx, want)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if pkt.Meta == nil || pkt.Meta.Size != uint64(len(pkt.Data)) {
			t.Fatalf("unexpected meta %+v", pkt.Meta)
		}
		got, err := client.Decode(ctx, pkt)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(mustBinary(t, got), mustBinary(t, want)) {
			t.Fatalf("%s: round-trip mismatch", want.Message.Version)
		}
	}
}

func TestPacketCodecInvalidArgument(t *testing.T) {
	client := startBufconn(t)
	ctx := context.Background()

	_, err := client.Decode(ctx, packet.Packet{Data: []byte{0x01}})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("truncated tx: expected InvalidArgument, got %v", err)
	}
	_, err = client.Decode(ctx, packet.Packet{Data: []byte{0}, Meta: &packet.Meta{Size: convert.PacketDataSize + 1}})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("oversize: expected InvalidArgument, got %v", err)
	}

	raw := []*wrapperspb.BytesValue{
		wrapperspb.Bytes([]byte{0x0a, 0x05}),
		wrapperspb.Bytes([]byte{0x0a, 0x01, 0x00, 0x12, 0x7f}),
	}
	for _, in := range raw {
		if _, err := client.client.Decode(ctx, in); status.Code(err) != codes.InvalidArgument {
			t.Fatalf("bad proto %x: expected InvalidArgument, got %v", in.GetValue(), err)
		}
	}
	if _, err := client.client.Encode(ctx, wrapperspb.Bytes([]byte{0x01, 0x02})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad tx: expected InvalidArgument, got %v", err)
	}
}

func TestUnimplementedServer(t *testing.T) {
	var s UnimplementedPacketCodecServer
	if _, err := s.Decode(context.Background(), wrapperspb.Bytes(nil)); status.Code(err) != codes.Unimplemented {
		t.Fatalf("expected Unimplemented, got %v", err)
	}
	var nilServer *Server
	if _, err := nilServer.Encode(context.Background(), wrapperspb.Bytes(nil)); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestPacketCodecMutualTLS(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "txwire-test-ca")
	serverPair := ca.Server(t, dir, "txwired")
	clientPair := ca.Client(t, dir, "txwirectl")

	serverTLS, err := ServerTLSConfig(TLSFiles{
		CertFile: serverPair.CertFile,
		KeyFile:  serverPair.KeyFile,
		CAFile:   ca.CAFile(),
		Mutual:   true,
	})
	if err != nil {
		t.Fatalf("ServerTLSConfig: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := pipeline.New(pipeline.Config{Node: "rpc-tls"}, log.Logger)
	srv := NewGRPCServer(p, ServerOptions{TLS: serverTLS}, log.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()

	clientTLS, err := ClientTLSConfig(TLSFiles{
		CertFile: clientPair.CertFile,
		KeyFile:  clientPair.KeyFile,
		CAFile:   ca.CAFile(),
		Mutual:   true,
	}, "localhost")
	if err != nil {
		t.Fatalf("ClientTLSConfig: %v", err)
	}
	client, err := Dial(ln.Addr().String(), DialOptions{TLS: clientTLS})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	client.Timeout = 5 * time.Second

	want := txtest.Legacy(t)
	pkt, err := client.Encode(context.Background(), want)
	if err != nil {
		t.Fatalf("Encode over tls: %v", err)
	}
	got, err := client.Decode(context.Background(), pkt)
	if err != nil {
		t.Fatalf("Decode over tls: %v", err)
	}
	if !bytes.Equal(mustBinary(t, got), mustBinary(t, want)) {
		t.Fatalf("round-trip mismatch over tls")
	}

	// Without a client certificate the handshake must fail.
	anonTLS, err := ClientTLSConfig(TLSFiles{CAFile: ca.CAFile()}, "localhost")
	if err != nil {
		t.Fatalf("ClientTLSConfig anon: %v", err)
	}
	anon, err := Dial(ln.Addr().String(), DialOptions{TLS: anonTLS})
	if err != nil {
		t.Fatalf("Dial anon: %v", err)
	}
	defer anon.Close()
	anon.Timeout = 2 * time.Second
	if _, err := anon.Encode(context.Background(), want); err == nil {
		t.Fatalf("expected handshake failure without client cert")
	}
}

func TestTLSConfigRequiresFiles(t *testing.T) {
	if _, err := ServerTLSConfig(TLSFiles{KeyFile: "k"}); err != ErrTLSCertFileRequired {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	if _, err := ServerTLSConfig(TLSFiles{CertFile: "c"}); err != ErrTLSKeyFileRequired {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	if _, err := ClientTLSConfig(TLSFiles{}, "localhost"); err != ErrTLSCAFileRequired {
		t.Fatalf("expected ErrTLSCAFileRequired, got %v", err)
	}
}
