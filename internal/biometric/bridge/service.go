package bridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "gophlock.bridge.v1.Biometric"

	MethodAssert    = "/" + ServiceName + "/Assert"
	MethodAvailable = "/" + ServiceName + "/Available"
)

// BiometricServer is the server side of the bridge service.
type BiometricServer interface {
	Assert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Available(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterBiometricServer registers srv on s.
func RegisterBiometricServer(s grpc.ServiceRegistrar, srv BiometricServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BiometricServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Assert", Handler: unaryHandler(MethodAssert, BiometricServer.Assert)},
		{MethodName: "Available", Handler: unaryHandler(MethodAvailable, BiometricServer.Available)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophlock/bridge/v1/biometric.proto",
}

type unaryMethod func(BiometricServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BiometricServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BiometricServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
