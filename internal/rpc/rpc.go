// Package rpc defines the broker's two RPCs over a hand-written gRPC
// service, following the shape protoc-gen-go-grpc would emit (a
// *Client struct wrapping grpc.ClientConnInterface, _Handler functions, and a
// package-level grpc.ServiceDesc) without a protoc code-generation step.
// Messages are plain Go structs carried with a registered "json" codec
// instead of the default protobuf wire format, so every other gRPC mechanism
// (HTTP/2 transport, service registration, per-stream flow control, the
// standard health service, CallOptions) stays genuine.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name the broker registers
// under. The broker's health server does not check the requested service
// name; it reports the same readiness for this name as for any other.
const ServiceName = "crawlbroker.v1.Broker"

// PublishEntry is one (domain, url) pair submitted by a publisher.
type PublishEntry struct {
	Domain string `json:"domain"`
	Url    string `json:"url"`
}

// PublishRequest is the body of PublishUrls: an ordered batch of entries.
type PublishRequest struct {
	Entries []PublishEntry `json:"entries"`
}

// PublishResponse is empty on success; errors are transport-layer only.
type PublishResponse struct{}

// SubscribeRequest is empty: a subscription carries no parameters.
type SubscribeRequest struct{}

// UrlMessage is one element of the Subscribe response stream.
type UrlMessage struct {
	Url string `json:"url"`
}

// BrokerServer is the interface implementations (internal/broker) satisfy.
type BrokerServer interface {
	PublishUrls(context.Context, *PublishRequest) (*PublishResponse, error)
	Subscribe(*SubscribeRequest, Broker_SubscribeServer) error
}

// Broker_SubscribeServer is the server-side stream handle for Subscribe, the
// shape protoc-gen-go-grpc generates for a server-streaming method.
type Broker_SubscribeServer interface {
	Send(*UrlMessage) error
	grpc.ServerStream
}

type brokerSubscribeServer struct {
	grpc.ServerStream
}

func (s *brokerSubscribeServer) Send(m *UrlMessage) error {
	return s.ServerStream.SendMsg(m)
}

func _Broker_PublishUrls_Handler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(PublishRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BrokerServer).PublishUrls(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/PublishUrls",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BrokerServer).PublishUrls(ctx, req.(*PublishRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Broker_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BrokerServer).Subscribe(m, &brokerSubscribeServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc a hand-rolled Register call installs,
// mirroring the struct protoc-gen-go-grpc emits per service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BrokerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PublishUrls",
			Handler:    _Broker_PublishUrls_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _Broker_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "crawlbroker/broker.proto",
}

// RegisterBrokerServer registers srv against s, the way generated code would
// call grpc.ServiceRegistrar.RegisterService.
func RegisterBrokerServer(s grpc.ServiceRegistrar, srv BrokerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BrokerClient is the client-side stub, matching the *Client-wraps-a-conn
// shape generated code produces.
type BrokerClient interface {
	PublishUrls(ctx context.Context, in *PublishRequest, opts ...grpc.CallOption) (*PublishResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (Broker_SubscribeClient, error)
}

type brokerClient struct {
	cc grpc.ClientConnInterface
}

// NewBrokerClient returns a BrokerClient bound to cc.
func NewBrokerClient(cc grpc.ClientConnInterface) BrokerClient {
	return &brokerClient{cc}
}

func (c *brokerClient) PublishUrls(
	ctx context.Context, in *PublishRequest, opts ...grpc.CallOption,
) (*PublishResponse, error) {
	out := new(PublishResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/PublishUrls", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Broker_SubscribeClient is the client-side stream handle for Subscribe.
type Broker_SubscribeClient interface {
	Recv() (*UrlMessage, error)
	grpc.ClientStream
}

type brokerSubscribeClient struct {
	grpc.ClientStream
}

func (x *brokerSubscribeClient) Recv() (*UrlMessage, error) {
	m := new(UrlMessage)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *brokerClient) Subscribe(
	ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption,
) (Broker_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/Subscribe", opts...)
	if err != nil {
		return nil, err
	}
	x := &brokerSubscribeClient{stream}
	if err = x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err = x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
