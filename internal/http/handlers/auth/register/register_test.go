package register

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
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, email, password string, name *string) (string, error) {
	args := m.Called(ctx, email, password, name)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantKind   string
		wantUserID string
	}{
		{
			name: "created",
			body: `{"email":"kim@example.com","password":"fairway123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "kim@example.com", "fairway123", (*string)(nil)).Return("u-1", nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantUserID: "u-1",
		},
		{
			name: "duplicate email",
			body: `{"email":"kim@example.com","password":"fairway123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", apperr.Conflict("email already registered")).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "conflict",
		},
		{
			name:       "invalid json",
			body:       `{"email":`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
		},
		{
			name:       "short password",
			body:       `{"email":"kim@example.com","password":"short"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
		},
		{
			name:       "bad email",
			body:       `{"email":"not-an-email","password":"fairway123"}`,
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
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp struct {
				response.Response
				Data *Result `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantKind != "" {
				assert.Equal(t, response.StatusError, resp.Status)
				assert.Equal(t, tt.wantKind, resp.Kind)
			} else {
				require.NotNil(t, resp.Data)
				assert.Equal(t, tt.wantUserID, resp.Data.UserID)
			}
			svc.AssertExpectations(t)
		})
	}
}
