package ddmv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "ddmonitor.v1.Ledger"

	sendTransactionMethod   = "/" + ServiceName + "/SendTransaction"
	getAccountMethod        = "/" + ServiceName + "/GetAccount"
	getMinimumBalanceMethod = "/" + ServiceName + "/GetMinimumBalance"
	requestAirdropMethod    = "/" + ServiceName + "/RequestAirdrop"
	getHealthMethod         = "/" + ServiceName + "/GetHealth"
	subscribeAccountMethod  = "/" + ServiceName + "/SubscribeAccount"
)

// LedgerServer is the server API for the Ledger service.
type LedgerServer interface {
	SendTransaction(context.Context, *SendTransactionRequest) (*SendTransactionResponse, error)
	GetAccount(context.Context, *GetAccountRequest) (*GetAccountResponse, error)
	GetMinimumBalance(context.Context, *GetMinimumBalanceRequest) (*GetMinimumBalanceResponse, error)
	RequestAirdrop(context.Context, *RequestAirdropRequest) (*RequestAirdropResponse, error)
	GetHealth(context.Context, *HealthRequest) (*HealthResponse, error)
	SubscribeAccount(*SubscribeAccountRequest, grpc.ServerStreamingServer[AccountUpdate]) error
}

// UnimplementedLedgerServer can be embedded to stay forward compatible.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) SendTransaction(context.Context, *SendTransactionRequest) (*SendTransactionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendTransaction not implemented")
}
func (UnimplementedLedgerServer) GetAccount(context.Context, *GetAccountRequest) (*GetAccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}
func (UnimplementedLedgerServer) GetMinimumBalance(context.Context, *GetMinimumBalanceRequest) (*GetMinimumBalanceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMinimumBalance not implemented")
}
func (UnimplementedLedgerServer) RequestAirdrop(context.Context, *RequestAirdropRequest) (*RequestAirdropResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestAirdrop not implemented")
}
func (UnimplementedLedgerServer) GetHealth(context.Context, *HealthRequest) (*HealthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHealth not implemented")
}
func (UnimplementedLedgerServer) SubscribeAccount(*SubscribeAccountRequest, grpc.ServerStreamingServer[AccountUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeAccount not implemented")
}

// RegisterLedgerServer registers srv with s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// unary builds a MethodHandler that decodes Req and calls fn.
func unary[Req any, Resp any](method string, fn func(LedgerServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(LedgerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeAccountHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeAccountRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LedgerServer).SubscribeAccount(in, &grpc.GenericServerStream[SubscribeAccountRequest, AccountUpdate]{ServerStream: stream})
}

// LedgerServiceDesc describes ddmonitor.v1.Ledger.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendTransaction", Handler: unary(sendTransactionMethod, LedgerServer.SendTransaction)},
		{MethodName: "GetAccount", Handler: unary(getAccountMethod, LedgerServer.GetAccount)},
		{MethodName: "GetMinimumBalance", Handler: unary(getMinimumBalanceMethod, LedgerServer.GetMinimumBalance)},
		{MethodName: "RequestAirdrop", Handler: unary(requestAirdropMethod, LedgerServer.RequestAirdrop)},
		{MethodName: "GetHealth", Handler: unary(getHealthMethod, LedgerServer.GetHealth)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SubscribeAccount", Handler: subscribeAccountHandler, ServerStreams: true},
	},
	Metadata: "ddmonitor/v1/ledger",
}

// LedgerClient is the client API for the Ledger service.
type LedgerClient interface {
	SendTransaction(ctx context.Context, in *SendTransactionRequest, opts ...grpc.CallOption) (*SendTransactionResponse, error)
	GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*GetAccountResponse, error)
	GetMinimumBalance(ctx context.Context, in *GetMinimumBalanceRequest, opts ...grpc.CallOption) (*GetMinimumBalanceResponse, error)
	RequestAirdrop(ctx context.Context, in *RequestAirdropRequest, opts ...grpc.CallOption) (*RequestAirdropResponse, error)
	GetHealth(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error)
	SubscribeAccount(ctx context.Context, in *SubscribeAccountRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AccountUpdate], error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) SendTransaction(ctx context.Context, in *SendTransactionRequest, opts ...grpc.CallOption) (*SendTransactionResponse, error) {
	return invoke[SendTransactionResponse](ctx, c.cc, sendTransactionMethod, in, opts)
}

func (c *ledgerClient) GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*GetAccountResponse, error) {
	return invoke[GetAccountResponse](ctx, c.cc, getAccountMethod, in, opts)
}

func (c *ledgerClient) GetMinimumBalance(ctx context.Context, in *GetMinimumBalanceRequest, opts ...grpc.CallOption) (*GetMinimumBalanceResponse, error) {
	return invoke[GetMinimumBalanceResponse](ctx, c.cc, getMinimumBalanceMethod, in, opts)
}

func (c *ledgerClient) RequestAirdrop(ctx context.Context, in *RequestAirdropRequest, opts ...grpc.CallOption) (*RequestAirdropResponse, error) {
	return invoke[RequestAirdropResponse](ctx, c.cc, requestAirdropMethod, in, opts)
}

func (c *ledgerClient) GetHealth(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c.cc, getHealthMethod, in, opts)
}

func (c *ledgerClient) SubscribeAccount(ctx context.Context, in *SubscribeAccountRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AccountUpdate], error) {
	stream, err := c.cc.NewStream(ctx, &LedgerServiceDesc.Streams[0], subscribeAccountMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeAccountRequest, AccountUpdate]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
