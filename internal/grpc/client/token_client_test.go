package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/grpc/server"
	"github.com/fairwaylab/swingcoach/internal/grpc/tokenpb"
	"github.com/fairwaylab/swingcoach/internal/lib/jwt"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
)

const bufSize = 1024 * 1024

func startServer(t *testing.T, maker jwt.Maker) *TokenClient {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(bufSize)

	srv := grpc.NewServer()
	verifier := auth.NewService(nil, maker, nil, log)
	tokenpb.RegisterTokenServiceServer(srv, server.NewTokenServer(verifier, entitlement.NewResolver(entitlement.DefaultTable(), nil), log))
	hs := health.NewServer()
	hs.SetServingStatus(tokenpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewTokenClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTokenClient_Verify(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	c := startServer(t, maker)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := maker.GenerateToken("u-1", "kim@example.com", models.RoleClubPro)
	require.NoError(t, err)

	id, err := c.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "kim@example.com", id.Email)
	assert.Equal(t, models.RoleClubPro, id.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, time.Minute)

	_, err = c.Verify(ctx, "garbage")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestTokenClient_Authorize(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	c := startServer(t, maker)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := maker.GenerateToken("u-1", "kim@example.com", models.RoleClubPro)
	require.NoError(t, err)

	allowed, role, err := c.Authorize(ctx, token, entitlement.FeatureTeamReports)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, models.RoleClubPro, role)

	allowed, _, err = c.Authorize(ctx, token, entitlement.FeatureAPIAccess)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTokenClient_Health(t *testing.T) {
	c := startServer(t, jwt.NewJWTMaker("test-secret", time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: tokenpb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestTokenClient_Unavailable(t *testing.T) {
	c, err := NewTokenClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return nil, io.ErrUnexpectedEOF
		}))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Verify(ctx, "token")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
