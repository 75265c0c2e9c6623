package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	id, _ := args.Get(0).(*models.Identity)
	return id, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(v *VerifierMock) *TokenServer {
	return NewTokenServer(v, entitlement.NewResolver(entitlement.DefaultTable(), nil), newNoopLogger())
}

func TestTokenServer_Verify(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		token     string
		setupMock func(m *VerifierMock)
		wantCode  codes.Code
		wantRole  string
	}{
		{
			name:  "valid",
			token: "good",
			setupMock: func(m *VerifierMock) {
				m.On("Verify", mock.Anything, "good").
					Return(&models.Identity{UserID: "u-1", Email: "kim@example.com", Role: models.RoleElite, ExpiresAt: exp}, nil).Once()
			},
			wantCode: codes.OK,
			wantRole: "elite",
		},
		{
			name:      "empty token",
			setupMock: func(*VerifierMock) {},
			wantCode:  codes.InvalidArgument,
		},
		{
			name:  "expired",
			token: "old",
			setupMock: func(m *VerifierMock) {
				m.On("Verify", mock.Anything, "old").Return(nil, apperr.Authentication("invalid or expired token")).Once()
			},
			wantCode: codes.Unauthenticated,
		},
		{
			name:  "unexpected failure",
			token: "x",
			setupMock: func(m *VerifierMock) {
				m.On("Verify", mock.Anything, "x").Return(nil, errors.New("boom")).Once()
			},
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := new(VerifierMock)
			tt.setupMock(v)

			resp, err := newServer(v).Verify(context.Background(), wrapperspb.String(tt.token))
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				require.NoError(t, err)
				f := resp.GetFields()
				assert.Equal(t, "u-1", f["user_id"].GetStringValue())
				assert.Equal(t, tt.wantRole, f["role"].GetStringValue())
				assert.Equal(t, "2030-01-02T03:04:05Z", f["expires_at"].GetStringValue())
			}
			v.AssertExpectations(t)
		})
	}
}

func TestTokenServer_Authorize(t *testing.T) {
	v := new(VerifierMock)
	v.On("Verify", mock.Anything, "pro-token").Return(&models.Identity{UserID: "u-1", Role: models.RolePro}, nil)
	s := newServer(v)

	req := func(token, feature string) *structpb.Struct {
		st, err := structpb.NewStruct(map[string]any{"token": token, "feature": feature})
		require.NoError(t, err)
		return st
	}

	resp, err := s.Authorize(context.Background(), req("pro-token", entitlement.FeatureAICoaching))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["allowed"].GetBoolValue())
	assert.Equal(t, "pro", resp.GetFields()["role"].GetStringValue())

	resp, err = s.Authorize(context.Background(), req("pro-token", entitlement.FeatureBatchAnalysis))
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["allowed"].GetBoolValue())

	_, err = s.Authorize(context.Background(), req("pro-token", ""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
