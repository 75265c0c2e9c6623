// Package middlewarectx содержит HTTP middleware: проверку токена,
// ограничение частоты запросов и сбор метрик.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	tokenKey    ctxKey = "token"
)

// Verifier проверяет токен. Реализуется сервисом auth и gRPC-клиентом.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// WithIdentity кладёт проверенную личность в контекст.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom достаёт личность вызывающего из контекста.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// WithToken кладёт исходный bearer-токен в контекст.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom достаёт исходный токен, прошедший JWTMiddleware.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// JWTMiddleware требует валидный bearer-токен; иначе отвечает 401.
func JWTMiddleware(verifier Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearer(r)
			if !ok {
				log.Debug("missing or invalid authorization header")
				response.Fail(w, r, apperr.Authentication("missing or invalid authorization header"))
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Info("token rejected", sl.Err(err))
				if apperr.KindOf(err) == apperr.KindInternal {
					response.Fail(w, r, err)
					return
				}
				response.Fail(w, r, apperr.Authentication("invalid or expired token"))
				return
			}
			ctx := WithToken(WithIdentity(r.Context(), *id), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWT добавляет личность в контекст, если передан валидный токен.
// Отсутствующий заголовок пропускается; невалидный токен отклоняется с 401.
func OptionalJWT(verifier Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	required := JWTMiddleware(verifier, log)
	return func(next http.Handler) http.Handler {
		withToken := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			withToken.ServeHTTP(w, r)
		})
	}
}
