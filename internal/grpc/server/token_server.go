// Package server реализует gRPC-сервис проверки токенов.
//
// TokenServer проверяет подпись и срок токена и решает вопросы доступа
// к функциям, делегируя логику сервису auth и резолверу доступа.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/grpc/tokenpb"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

// Verifier проверяет токен.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// Resolver решает, доступна ли функция роли.
type Resolver interface {
	CanAccess(role models.Role, feature string) bool
}

// TokenServer реализует tokenpb.TokenServiceServer.
type TokenServer struct {
	verifier Verifier
	resolver Resolver
	log      *slog.Logger
}

func NewTokenServer(verifier Verifier, resolver Resolver, log *slog.Logger) *TokenServer {
	return &TokenServer{
		verifier: verifier,
		resolver: resolver,
		log:      log,
	}
}

// Verify возвращает claims токена.
func (s *TokenServer) Verify(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.Verify"
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	id, err := s.verifier.Verify(ctx, req.GetValue())
	if err != nil {
		s.log.Debug("token rejected", slog.String("op", op), sl.Err(err))
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		tokenpb.FieldUserID:    id.UserID,
		tokenpb.FieldEmail:     id.Email,
		tokenpb.FieldRole:      id.Role.String(),
		tokenpb.FieldExpiresAt: id.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Error("failed to build response", slog.String("op", op), sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// Authorize проверяет токен и доступ его роли к функции.
func (s *TokenServer) Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.Authorize"
	fields := req.GetFields()
	token := fields[tokenpb.FieldToken].GetStringValue()
	feature := fields[tokenpb.FieldFeature].GetStringValue()
	if token == "" || feature == "" {
		return nil, status.Error(codes.InvalidArgument, "token and feature are required")
	}

	id, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.log.Debug("token rejected", slog.String("op", op), sl.Err(err))
		return nil, toStatus(err)
	}

	allowed := s.resolver.CanAccess(id.Role, feature)
	out, err := structpb.NewStruct(map[string]any{
		tokenpb.FieldAllowed: allowed,
		tokenpb.FieldRole:    id.Role.String(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func toStatus(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindAuthentication:
		return status.Error(codes.Unauthenticated, "invalid or expired token")
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, apperr.MessageOf(err))
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
