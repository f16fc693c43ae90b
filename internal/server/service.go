package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "orschedule.v1.ScheduleService"

// ScheduleServer is the server API for orschedule.v1.ScheduleService.
// Requests and responses are google.protobuf.Struct messages.
type ScheduleServer interface {
	ParseText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ParseFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type scheduleMethod func(ScheduleServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call scheduleMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ScheduleServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ScheduleServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ScheduleServiceDesc describes orschedule.v1.ScheduleService for grpc.Server.
var ScheduleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ParseText", ScheduleServer.ParseText),
		unaryHandler("ParseFile", ScheduleServer.ParseFile),
		unaryHandler("GetJob", ScheduleServer.GetJob),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orschedule/v1/schedule.proto",
}

func RegisterScheduleServer(s grpc.ServiceRegistrar, srv ScheduleServer) {
	s.RegisterService(&ScheduleServiceDesc, srv)
}

// ScheduleClient calls orschedule.v1.ScheduleService.
type ScheduleClient struct {
	cc grpc.ClientConnInterface
}

func NewScheduleClient(cc grpc.ClientConnInterface) *ScheduleClient {
	return &ScheduleClient{cc: cc}
}

func (c *ScheduleClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleClient) ParseText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ParseText", in, opts...)
}

func (c *ScheduleClient) ParseFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ParseFile", in, opts...)
}

func (c *ScheduleClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetJob", in, opts...)
}
