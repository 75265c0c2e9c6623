// Package auth собирает gRPC-сервис токенов.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fairwaylab/swingcoach/internal/config"
	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/grpc/server"
	"github.com/fairwaylab/swingcoach/internal/grpc/tokenpb"
	"github.com/fairwaylab/swingcoach/internal/lib/jwt"
	"github.com/fairwaylab/swingcoach/internal/plans"
	authservice "github.com/fairwaylab/swingcoach/internal/services/auth"
)

type App struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	logger     *slog.Logger
}

// New создаёт сервис токенов. Базе он не нужен: токены проверяются по подписи.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	secret, insecure, err := cfg.JWTSecret()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if insecure {
		logger.Warn("JWT secret is not set, using the insecure development key")
	}
	table, err := cfg.EntitlementTable()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verifier := authservice.NewService(nil, jwt.NewJWTMaker(secret, cfg.JWT.TokenTTL), nil, logger)
	resolver := entitlement.NewResolver(table, plans.Default())

	lis, err := net.Listen("tcp", cfg.GRPCServer.Address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grpcServer := grpc.NewServer()
	tokenpb.RegisterTokenServiceServer(grpcServer, server.NewTokenServer(verifier, resolver, logger))

	hs := health.NewServer()
	hs.SetServingStatus(tokenpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &App{
		grpcServer: grpcServer,
		health:     hs,
		listener:   lis,
		logger:     logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("token gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case <-ctx.Done():
		a.health.Shutdown()
		a.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
