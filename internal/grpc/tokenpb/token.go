// Package tokenpb описывает gRPC-сервис проверки токенов. Сообщения
// построены на well-known типах protobuf, поэтому генерация кода не нужна.
//
//	service TokenService {
//	  rpc Verify(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc Authorize(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
package tokenpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "swingcoach.auth.v1.TokenService"

	VerifyFullMethod    = "/" + ServiceName + "/Verify"
	AuthorizeFullMethod = "/" + ServiceName + "/Authorize"
)

// Поля сообщений Struct.
const (
	FieldToken     = "token"
	FieldFeature   = "feature"
	FieldUserID    = "user_id"
	FieldEmail     = "email"
	FieldRole      = "role"
	FieldExpiresAt = "expires_at"
	FieldAllowed   = "allowed"
)

// TokenServiceServer — серверная часть сервиса.
type TokenServiceServer interface {
	Verify(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
	Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTokenServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenServiceDesc, srv)
}

// TokenServiceDesc — описание сервиса для grpc.Server.
var TokenServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: verifyHandler},
		{MethodName: "Authorize", Handler: authorizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "swingcoach/auth/v1/token.proto",
}

func verifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).Verify(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func authorizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthorizeFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).Authorize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// TokenServiceClient — клиентская часть сервиса.
type TokenServiceClient interface {
	Verify(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	Authorize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type tokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenServiceClient(cc grpc.ClientConnInterface) TokenServiceClient {
	return &tokenServiceClient{cc: cc}
}

func (c *tokenServiceClient) Verify(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) Authorize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthorizeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
