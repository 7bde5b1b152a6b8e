package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophgate.v1.Gateway"

// Full method names, as seen by interceptors.
const (
	MethodLogin        = "/" + ServiceName + "/Login"
	MethodRefreshToken = "/" + ServiceName + "/RefreshToken"
	MethodLogout       = "/" + ServiceName + "/Logout"
	MethodLogoutAll    = "/" + ServiceName + "/LogoutAll"
	MethodUploadAsset  = "/" + ServiceName + "/UploadAsset"
	MethodDeleteAsset  = "/" + ServiceName + "/DeleteAsset"
	MethodGetAsset     = "/" + ServiceName + "/GetAsset"
	MethodPing         = "/" + ServiceName + "/Ping"
)

// GatewayServer is implemented by the transport layer.
type GatewayServer interface {
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	LogoutAll(context.Context, *Empty) (*LogoutAllResponse, error)
	UploadAsset(context.Context, *UploadAssetRequest) (*AssetResponse, error)
	DeleteAsset(context.Context, *AssetRequest) (*Empty, error)
	GetAsset(context.Context, *AssetRequest) (*AssetResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](fullMethod string, call func(GatewayServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GatewayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GatewayServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, GatewayServer.Login)},
		{MethodName: "RefreshToken", Handler: unaryHandler(MethodRefreshToken, GatewayServer.RefreshToken)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, GatewayServer.Logout)},
		{MethodName: "LogoutAll", Handler: unaryHandler(MethodLogoutAll, GatewayServer.LogoutAll)},
		{MethodName: "UploadAsset", Handler: unaryHandler(MethodUploadAsset, GatewayServer.UploadAsset)},
		{MethodName: "DeleteAsset", Handler: unaryHandler(MethodDeleteAsset, GatewayServer.DeleteAsset)},
		{MethodName: "GetAsset", Handler: unaryHandler(MethodGetAsset, GatewayServer.GetAsset)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, GatewayServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophgate/v1/gateway",
}

// GatewayClient calls the gateway over a connection using the JSON codec.
type GatewayClient struct {
	cc grpc.ClientConnInterface
}

func NewGatewayClient(cc grpc.ClientConnInterface) *GatewayClient {
	return &GatewayClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GatewayClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *GatewayClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *GatewayClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *GatewayClient) LogoutAll(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*LogoutAllResponse, error) {
	return invoke[LogoutAllResponse](ctx, c.cc, MethodLogoutAll, in, opts)
}

func (c *GatewayClient) UploadAsset(ctx context.Context, in *UploadAssetRequest, opts ...grpc.CallOption) (*AssetResponse, error) {
	return invoke[AssetResponse](ctx, c.cc, MethodUploadAsset, in, opts)
}

func (c *GatewayClient) DeleteAsset(ctx context.Context, in *AssetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeleteAsset, in, opts)
}

func (c *GatewayClient) GetAsset(ctx context.Context, in *AssetRequest, opts ...grpc.CallOption) (*AssetResponse, error) {
	return invoke[AssetResponse](ctx, c.cc, MethodGetAsset, in, opts)
}

func (c *GatewayClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
