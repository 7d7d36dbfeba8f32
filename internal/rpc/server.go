package rpc

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/danmuck/txwire/internal/auth"
	"github.com/danmuck/txwire/internal/pipeline"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server exposes a pipeline over the PacketCodec gRPC service.
type Server struct {
	UnimplementedPacketCodecServer
	Pipeline *pipeline.Pipeline
}

func (s *Server) Decode(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing pipeline")
	}
	pkt, err := packet.UnmarshalProto(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	tx, err := s.Pipeline.Decode(pkt)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(raw), nil
}

func (s *Server) Encode(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing pipeline")
	}
	tx, err := protocol.UnmarshalTransaction(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	pkt, err := s.Pipeline.Encode(tx)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bytes(pkt.MarshalProto()), nil
}

// ServerOptions secures the listener. A nil TLS serves plaintext and a nil
// Auth accepts every caller.
type ServerOptions struct {
	TLS  *tls.Config
	Auth auth.Validator
}

// NewGRPCServer builds a grpc.Server with the codec registered.
func NewGRPCServer(p *pipeline.Pipeline, so ServerOptions, logger zerolog.Logger) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger), auth.UnaryInterceptor(so.Auth)),
	}
	if so.TLS != nil {
		opts = append(opts, grpc.Creds(credentials.NewTLS(so.TLS)))
	}
	srv := grpc.NewServer(opts...)
	RegisterPacketCodecServer(srv, &Server{Pipeline: p})
	return srv
}

// Serve blocks until ctx is done or the listener fails.
func Serve(ctx context.Context, srv *grpc.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	logger = logger.With().Str("component", "rpc").Logger()
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		event := logger.Debug()
		if code == codes.Internal || code == codes.Unknown {
			event = logger.Error()
		}
		event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("grpc_request")
		return resp, err
	}
}
