// Package ratelimit ограничивает частоту запросов по ключу клиента.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter решает, можно ли пропустить очередной запрос с ключом key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Counter — счётчик с временем жизни, обычно *cache.Cache.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Window — фиксированное окно поверх общего счётчика.
// Лимит действует для всех экземпляров сервиса.
type Window struct {
	counter Counter
	limit   int64
	window  time.Duration
	prefix  string
}

func NewWindow(counter Counter, limit int, window time.Duration) *Window {
	return &Window{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		prefix:  "ratelimit:",
	}
}

func (w *Window) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.Window.Allow"
	bucket := time.Now().UnixNano() / int64(w.window)
	n, err := w.counter.Incr(ctx, fmt.Sprintf("%s%s:%d", w.prefix, key, bucket), w.window)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n <= w.limit, nil
}

// Local — token bucket на ключ в памяти процесса. Используется без redis.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func NewLocal(limit int, window time.Duration) *Local {
	if limit < 1 {
		limit = 1
	}
	return &Local{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow(), nil
}
