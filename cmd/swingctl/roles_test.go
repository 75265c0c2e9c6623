package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

type RoleStoreMock struct {
	mock.Mock
}

func (m *RoleStoreMock) SetRole(ctx context.Context, email string, role models.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

func (m *RoleStoreMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type AdminCreatorMock struct {
	mock.Mock
}

func (m *AdminCreatorMock) CreateAdmin(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func TestSetRole(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lapsed := now.AddDate(0, -2, 0)

	tests := []struct {
		name      string
		email     string
		role      string
		setupMock func(m *RoleStoreMock)
		wantErr   string
		wantOut   string
	}{
		{
			name:  "upgrade",
			email: " Kim@Example.com ",
			role:  "Club_Pro",
			setupMock: func(m *RoleStoreMock) {
				m.On("SetRole", mock.Anything, "kim@example.com", models.RoleClubPro).Return(nil).Once()
				m.On("GetUserByEmail", mock.Anything, "kim@example.com").
					Return(&models.User{Email: "kim@example.com", Role: models.RoleClubPro}, nil).Once()
			},
			wantOut: "kim@example.com is now club_pro\n",
		},
		{
			name:  "paid role after lapsed subscription",
			email: "lapsed@example.com",
			role:  "pro",
			setupMock: func(m *RoleStoreMock) {
				m.On("SetRole", mock.Anything, "lapsed@example.com", models.RolePro).Return(nil).Once()
				m.On("GetUserByEmail", mock.Anything, "lapsed@example.com").
					Return(&models.User{Email: "lapsed@example.com", Role: models.RolePro}, nil).Once()
			},
			wantOut: "lapsed@example.com is now pro\n",
		},
		{
			name:  "stored role not reflected in tokens",
			email: "lapsed@example.com",
			role:  "pro",
			setupMock: func(m *RoleStoreMock) {
				m.On("SetRole", mock.Anything, "lapsed@example.com", models.RolePro).Return(nil).Once()
				m.On("GetUserByEmail", mock.Anything, "lapsed@example.com").
					Return(&models.User{Email: "lapsed@example.com", Role: models.RolePro, SubscriptionExpiresAt: &lapsed}, nil).Once()
			},
			wantErr: "role pro is stored for lapsed@example.com but new tokens will carry user",
		},
		{
			name:      "unknown role",
			email:     "kim@example.com",
			role:      "superuser",
			setupMock: func(*RoleStoreMock) {},
			wantErr:   `unknown role "superuser"`,
		},
		{
			name:  "missing user",
			email: "ghost@example.com",
			role:  "pro",
			setupMock: func(m *RoleStoreMock) {
				m.On("SetRole", mock.Anything, "ghost@example.com", models.RolePro).
					Return(fmt.Errorf("storage.SetRole: %w", storage.ErrNotFound)).Once()
			},
			wantErr: "user ghost@example.com not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := new(RoleStoreMock)
			tt.setupMock(roles)
			var out bytes.Buffer

			err := setRole(context.Background(), roles, tt.email, tt.role, now, &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out.String())
			}
			roles.AssertExpectations(t)
		})
	}
}

func TestCreateAdmin(t *testing.T) {
	creator := new(AdminCreatorMock)
	creator.On("CreateAdmin", mock.Anything, "ops@example.com", "long-enough").Return("u-9", nil).Once()

	var out bytes.Buffer
	require.NoError(t, createAdmin(context.Background(), creator, "ops@example.com", "long-enough", &out))
	assert.Equal(t, "admin ops@example.com created with id u-9\n", out.String())
	creator.AssertExpectations(t)
}

func TestCreateAdmin_DuplicateEmail(t *testing.T) {
	creator := new(AdminCreatorMock)
	creator.On("CreateAdmin", mock.Anything, mock.Anything, mock.Anything).
		Return("", apperr.Conflict("email already registered")).Once()

	var out bytes.Buffer
	err := createAdmin(context.Background(), creator, "ops@example.com", "long-enough", &out)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, out.String())
}
