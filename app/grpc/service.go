package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// CoreService exchanges google.protobuf.Struct messages so the CRUD
// collaborator can call it without generated stubs.
const CoreServiceName = "segfault.core.v1.CoreService"

const (
	methodAuthenticate = "Authenticate"
	methodAuthorize    = "Authorize"
	methodGetScore     = "GetScore"
	methodGetVote      = "GetVote"
	methodSetVote      = "SetVote"
)

type CoreServiceServer interface {
	Authenticate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type coreMethod func(srv CoreServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

var CoreServiceDesc = gogrpc.ServiceDesc{
	ServiceName: CoreServiceName,
	HandlerType: (*CoreServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: methodAuthenticate, Handler: unaryHandler(methodAuthenticate, CoreServiceServer.Authenticate)},
		{MethodName: methodAuthorize, Handler: unaryHandler(methodAuthorize, CoreServiceServer.Authorize)},
		{MethodName: methodGetScore, Handler: unaryHandler(methodGetScore, CoreServiceServer.GetScore)},
		{MethodName: methodGetVote, Handler: unaryHandler(methodGetVote, CoreServiceServer.GetVote)},
		{MethodName: methodSetVote, Handler: unaryHandler(methodSetVote, CoreServiceServer.SetVote)},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "segfault/core/v1/core.proto",
}

func RegisterCoreServiceServer(s gogrpc.ServiceRegistrar, srv CoreServiceServer) {
	s.RegisterService(&CoreServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + CoreServiceName + "/" + method
}

func unaryHandler(method string, call coreMethod) func(any, context.Context, func(any) error, gogrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CoreServiceServer), ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CoreServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type CoreServiceClient struct {
	cc gogrpc.ClientConnInterface
}

func NewCoreServiceClient(cc gogrpc.ClientConnInterface) *CoreServiceClient {
	return &CoreServiceClient{cc: cc}
}

func (c *CoreServiceClient) Authenticate(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAuthenticate, in, opts...)
}

func (c *CoreServiceClient) Authorize(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAuthorize, in, opts...)
}

func (c *CoreServiceClient) GetScore(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetScore, in, opts...)
}

func (c *CoreServiceClient) GetVote(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetVote, in, opts...)
}

func (c *CoreServiceClient) SetVote(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSetVote, in, opts...)
}

func (c *CoreServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
