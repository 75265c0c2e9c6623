// Package auth содержит регистрацию, вход и проверку сессионных токенов.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/lib/jwt"
	"github.com/fairwaylab/swingcoach/internal/lib/password"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/metrics"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

// MinPasswordLength — минимальная длина пароля при регистрации.
const MinPasswordLength = 8

// UserRepository описывает контракт Credential Store.
type UserRepository interface {
	// CreateUser сохраняет пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по e-mail без учёта регистра.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Session — выпущенный токен и профиль пользователя.
type Session struct {
	Token string          `json:"token"`
	User  models.UserView `json:"user"`
}

// Service отвечает за регистрацию, вход и проверку токенов.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт Service.
func NewService(users UserRepository, jwtMaker jwt.Maker, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// NormalizeEmail приводит e-mail к каноническому виду.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя с ролью user. Повторный e-mail — Conflict.
func (s *Service) Register(ctx context.Context, email, rawPassword string, name *string) (string, error) {
	return s.create(ctx, "auth.Register", email, rawPassword, name, models.RoleUser)
}

// CreateAdmin создаёт пользователя сразу с ролью admin одной записью.
func (s *Service) CreateAdmin(ctx context.Context, email, rawPassword string) (string, error) {
	return s.create(ctx, "auth.CreateAdmin", email, rawPassword, nil, models.RoleAdmin)
}

func (s *Service) create(ctx context.Context, op, email, rawPassword string, name *string, role models.Role) (string, error) {
	log := s.log.With(slog.String("op", op))

	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", apperr.Validation("invalid email")
	}
	if len(rawPassword) < MinPasswordLength {
		return "", apperr.Validation("password is too short")
	}
	if len(rawPassword) > password.MaxLength {
		return "", apperr.Validation("password is too long")
	}

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return "", apperr.Internal("failed to register user", err)
	}

	id, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return "", apperr.Conflict("email already registered")
		}
		log.Error("failed to create user", sl.Err(err))
		return "", apperr.Internal("failed to register user", err)
	}

	log.Info("user registered", slog.String("user_id", id), slog.String("role", string(role)))
	return id, nil
}

// Login проверяет пароль и выпускает токен с эффективной ролью пользователя.
// Неизвестный e-mail и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"
	log := s.log.With(slog.String("op", op))

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.Login("invalid_credentials")
			return nil, apperr.Authentication("invalid email or password")
		}
		s.metrics.Login("error")
		log.Error("failed to load user", sl.Err(err))
		return nil, apperr.Internal("failed to login", err)
	}

	if err = password.Compare(user.PasswordHash, rawPassword); err != nil {
		s.metrics.Login("invalid_credentials")
		if !errors.Is(err, password.ErrMismatch) {
			log.Warn("stored password hash is unusable", slog.String("user_id", user.ID), sl.Err(err))
		}
		return nil, apperr.Authentication("invalid email or password")
	}
	if !user.IsActive {
		s.metrics.Login("inactive")
		return nil, apperr.Forbidden("account is disabled")
	}

	session, err := s.issue(user)
	if err != nil {
		s.metrics.Login("error")
		log.Error("failed to issue token", sl.Err(err))
		return nil, apperr.Internal("failed to login", err)
	}
	s.metrics.Login("success")
	log.Info("user logged in", slog.String("user_id", user.ID), slog.String("role", session.User.Role.String()))
	return session, nil
}

// Profile перечитывает пользователя и выпускает свежий токен. Это способ
// получить новую роль без повторного входа.
func (s *Service) Profile(ctx context.Context, caller models.Identity) (*Session, error) {
	const op = "auth.Profile"
	log := s.log.With(slog.String("op", op), slog.String("user_id", caller.UserID))

	user, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Authentication("user no longer exists")
		}
		log.Error("failed to load user", sl.Err(err))
		return nil, apperr.Internal("failed to load profile", err)
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}

	session, err := s.issue(user)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return nil, apperr.Internal("failed to load profile", err)
	}
	return session, nil
}

// Verify проверяет токен и возвращает личность вызывающего.
func (s *Service) Verify(_ context.Context, token string) (*models.Identity, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthentication, "invalid or expired token", err)
	}
	id := claims.Identity()
	return &id, nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	role := user.EffectiveRole(s.now())
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, role)
	if err != nil {
		return nil, err
	}
	view := user.View()
	view.Role = role
	return &Session{Token: token, User: view}, nil
}
