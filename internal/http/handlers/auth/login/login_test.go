package login

import (
	"bytes"
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
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	session := &auth.Session{
		Token: "tok",
		User:  models.UserView{ID: "u-1", Email: "kim@example.com", Role: models.RolePro, IsActive: true},
	}

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantKind   string
	}{
		{
			name: "valid login",
			body: `{"email":"kim@example.com","password":"fairway123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "kim@example.com", "fairway123").Return(session, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong password",
			body: `{"email":"kim@example.com","password":"wrong-pass"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "kim@example.com", "wrong-pass").
					Return(nil, apperr.Authentication("invalid email or password")).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "authentication",
		},
		{
			name: "inactive account",
			body: `{"email":"kim@example.com","password":"fairway123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, apperr.Forbidden("account is disabled")).Once()
			},
			wantStatus: http.StatusForbidden,
			wantKind:   "forbidden",
		},
		{
			name:       "missing password",
			body:       `{"email":"kim@example.com"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
		},
		{
			name:       "invalid json",
			body:       `nope`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantKind != "" {
				var resp response.Response
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantKind, resp.Kind)
				assert.NotContains(t, rr.Body.String(), "token")
			} else {
				var resp struct {
					Data auth.Session `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "tok", resp.Data.Token)
				assert.Equal(t, models.RolePro, resp.Data.User.Role)
				assert.NotContains(t, rr.Body.String(), "password")
			}
			svc.AssertExpectations(t)
		})
	}
}
