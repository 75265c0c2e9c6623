package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/ratelimit"
)

// RateLimitMiddleware ограничивает число запросов с одного IP.
// Если хранилище счётчиков недоступно, запрос пропускается.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", slog.String("client", key), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				log.Info("too many requests", slog.String("client", key), slog.String("path", r.URL.Path))
				response.Fail(w, r, apperr.New(apperr.KindRateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP берёт адрес из RemoteAddr; за прокси его подставляет middleware.RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
