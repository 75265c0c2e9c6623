package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Profile(ctx context.Context, caller models.Identity) (*auth.Session, error) {
	args := m.Called(ctx, caller)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMeHandler_ReturnsFreshToken(t *testing.T) {
	caller := models.Identity{UserID: "u-1", Email: "kim@example.com", Role: models.RoleUser}
	svc := new(ServiceMock)
	svc.On("Profile", mock.Anything, caller).Return(&auth.Session{
		Token: "fresh",
		User:  models.UserView{ID: "u-1", Role: models.RolePro},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middlewarectx.WithIdentity(req.Context(), caller))
	rr := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data auth.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "fresh", resp.Data.Token)
	assert.Equal(t, models.RolePro, resp.Data.User.Role)
	svc.AssertExpectations(t)
}

func TestMeHandler_Errors(t *testing.T) {
	svc := new(ServiceMock)
	h := New(newNoopLogger(), svc)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	caller := models.Identity{UserID: "gone"}
	svc.On("Profile", mock.Anything, caller).Return(nil, apperr.NotFound("user not found")).Once()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middlewarectx.WithIdentity(req.Context(), caller))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
