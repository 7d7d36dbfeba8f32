package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName  = "txwire.codec.v1.PacketCodec"
	methodDecode = "/" + serviceName + "/Decode"
	methodEncode = "/" + serviceName + "/Encode"
)

// PacketCodecServer is the server API for the PacketCodec service.
//
// Requests and replies are carried in wrapperspb.BytesValue so the service
// needs no generated code:
//
//	Decode: packet protobuf bytes -> transaction binary
//	Encode: transaction binary    -> packet protobuf bytes
type PacketCodecServer interface {
	Decode(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Encode(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedPacketCodecServer can be embedded to have forward compatible implementations.
type UnimplementedPacketCodecServer struct{}

func (UnimplementedPacketCodecServer) Decode(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Decode not implemented")
}
func (UnimplementedPacketCodecServer) Encode(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Encode not implemented")
}

func RegisterPacketCodecServer(s grpc.ServiceRegistrar, srv PacketCodecServer) {
	s.RegisterService(&PacketCodec_ServiceDesc, srv)
}

// PacketCodecClient is the client API for the PacketCodec service.
type PacketCodecClient interface {
	Decode(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Encode(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type packetCodecClient struct{ cc grpc.ClientConnInterface }

func NewPacketCodecClient(cc grpc.ClientConnInterface) PacketCodecClient {
	return &packetCodecClient{cc: cc}
}

func (c *packetCodecClient) Decode(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodDecode, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *packetCodecClient) Encode(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodEncode, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _PacketCodec_Decode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PacketCodecServer).Decode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDecode}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PacketCodecServer).Decode(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _PacketCodec_Encode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PacketCodecServer).Encode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodEncode}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PacketCodecServer).Encode(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// PacketCodec_ServiceDesc is the grpc.ServiceDesc for the PacketCodec service.
var PacketCodec_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PacketCodecServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Decode", Handler: _PacketCodec_Decode_Handler},
		{MethodName: "Encode", Handler: _PacketCodec_Encode_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "packet_codec.proto",
}
