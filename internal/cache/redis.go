// Package cache подключает redis и хранит в нём счётчики с ограниченным временем жизни.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairwaylab/swingcoach/internal/config"
)

type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.Redis) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Incr увеличивает счётчик key и возвращает новое значение.
// Время жизни ttl выставляется при создании счётчика.
func (c *Cache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	const op = "cache.Incr"
	n, err := c.Db.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		if err := c.Db.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	return n, nil
}

func (c *Cache) Close() error {
	return c.Db.Close()
}
