package rpc

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/danmuck/txwire/internal/auth"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote PacketCodec service.
type Client struct {
	cc     *grpc.ClientConn
	client PacketCodecClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// TLS enables transport security when non-nil.
	TLS *tls.Config

	// Token is sent as a bearer token on every call when non-empty.
	Token string

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended after the options derived above.
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	creds := insecure.NewCredentials()
	if opts.TLS != nil {
		creds = credentials.NewTLS(opts.TLS)
	}
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if opts.Token != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(auth.PerRPCToken{
			Token:    opts.Token,
			Insecure: opts.TLS == nil,
		}))
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewPacketCodecClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Decode sends pkt to the service and parses the transaction it returns.
func (c *Client) Decode(ctx context.Context, pkt packet.Packet) (*protocol.Transaction, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Decode(ctx, wrapperspb.Bytes(pkt.MarshalProto()))
	if err != nil {
		return nil, err
	}
	return protocol.UnmarshalTransaction(reply.GetValue())
}

// Encode sends tx to the service and parses the packet it returns.
func (c *Client) Encode(ctx context.Context, tx *protocol.Transaction) (packet.Packet, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return packet.Packet{}, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Encode(ctx, wrapperspb.Bytes(raw))
	if err != nil {
		return packet.Packet{}, err
	}
	return packet.UnmarshalProto(reply.GetValue())
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
