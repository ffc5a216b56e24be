package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor for datastreamer.v1.Introspection.
 *
 * Messages are protobuf well-known types so clients need no generated code:
 * samples travel as google.protobuf.Struct in the JSON shape of the root
 * type, responses as Struct documents (see schema.go for their layout).
 *
 *   GetSchema(Empty) returns (Struct)       current leaf index
 *   PushSample(Struct) returns (Struct)     extract one sample
 *   PushSamples(Struct) returns (Struct)    {"samples": [...]} batch
 */

const serviceName = "datastreamer.v1.Introspection"

// Full method names, as seen by interceptors.
const (
	GetSchemaMethod   = "/" + serviceName + "/GetSchema"
	PushSampleMethod  = "/" + serviceName + "/PushSample"
	PushSamplesMethod = "/" + serviceName + "/PushSamples"
)

// IntrospectionServer is the server API for the Introspection service.
type IntrospectionServer interface {
	GetSchema(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	PushSample(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PushSamples(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// IntrospectionServiceDesc describes the service for grpc.Server.RegisterService.
var IntrospectionServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*IntrospectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSchema", Handler: getSchemaHandler},
		{MethodName: "PushSample", Handler: pushSampleHandler},
		{MethodName: "PushSamples", Handler: pushSamplesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "datastreamer/v1/introspection.proto",
}

// RegisterIntrospectionServer registers srv with s.
func RegisterIntrospectionServer(s grpc.ServiceRegistrar, srv IntrospectionServer) {
	s.RegisterService(&IntrospectionServiceDesc, srv)
}

func getSchemaHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntrospectionServer).GetSchema(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetSchemaMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntrospectionServer).GetSchema(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func pushSampleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntrospectionServer).PushSample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PushSampleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntrospectionServer).PushSample(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func pushSamplesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntrospectionServer).PushSamples(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PushSamplesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntrospectionServer).PushSamples(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// IntrospectionClient is the client API for the Introspection service.
type IntrospectionClient struct {
	cc grpc.ClientConnInterface
}

// NewIntrospectionClient returns a client using cc.
func NewIntrospectionClient(cc grpc.ClientConnInterface) *IntrospectionClient {
	return &IntrospectionClient{cc: cc}
}

func (c *IntrospectionClient) GetSchema(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSchemaMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IntrospectionClient) PushSample(ctx context.Context, sample *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PushSampleMethod, sample, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IntrospectionClient) PushSamples(ctx context.Context, batch *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PushSamplesMethod, batch, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
