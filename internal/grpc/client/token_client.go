// Package client — клиент gRPC-сервиса токенов. Реализует тот же
// контракт Verify, что и локальный сервис auth, поэтому HTTP middleware
// не знает, где проверяется токен.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/grpc/tokenpb"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type TokenClient struct {
	conn   *grpc.ClientConn
	client tokenpb.TokenServiceClient
}

// NewTokenClient создаёт клиент. Соединение устанавливается лениво при первом вызове.
func NewTokenClient(addr string, opts ...grpc.DialOption) (*TokenClient, error) {
	const op = "grpc.client.NewTokenClient"
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &TokenClient{conn: conn, client: tokenpb.NewTokenServiceClient(conn)}, nil
}

func (c *TokenClient) Close() error {
	return c.conn.Close()
}

// Verify проверяет токен на стороне сервиса токенов.
func (c *TokenClient) Verify(ctx context.Context, token string) (*models.Identity, error) {
	resp, err := c.client.Verify(ctx, wrapperspb.String(token))
	if err != nil {
		return nil, fromStatus(err)
	}
	f := resp.GetFields()
	id := &models.Identity{
		UserID: f[tokenpb.FieldUserID].GetStringValue(),
		Email:  f[tokenpb.FieldEmail].GetStringValue(),
		Role:   models.ParseRole(f[tokenpb.FieldRole].GetStringValue()),
	}
	if exp := f[tokenpb.FieldExpiresAt].GetStringValue(); exp != "" {
		if t, err := time.Parse(time.RFC3339, exp); err == nil {
			id.ExpiresAt = t
		}
	}
	return id, nil
}

// Authorize проверяет доступ роли токена к функции.
func (c *TokenClient) Authorize(ctx context.Context, token, feature string) (bool, models.Role, error) {
	req, err := structpb.NewStruct(map[string]any{
		tokenpb.FieldToken:   token,
		tokenpb.FieldFeature: feature,
	})
	if err != nil {
		return false, models.RoleUnknown, apperr.Internal("failed to build request", err)
	}
	resp, err := c.client.Authorize(ctx, req)
	if err != nil {
		return false, models.RoleUnknown, fromStatus(err)
	}
	f := resp.GetFields()
	return f[tokenpb.FieldAllowed].GetBoolValue(), models.ParseRole(f[tokenpb.FieldRole].GetStringValue()), nil
}

func fromStatus(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return apperr.Wrap(apperr.KindAuthentication, "invalid or expired token", err)
	case codes.InvalidArgument:
		return apperr.Wrap(apperr.KindValidation, st.Message(), err)
	default:
		return apperr.Internal("auth service unavailable", err)
	}
}
