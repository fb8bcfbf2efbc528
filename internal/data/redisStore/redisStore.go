package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// Store wraps one redis connection. It is constructed explicitly by
// the composition root and closed there - no process-wide cached
// handle.
type Store struct {
	client *redis.Client
	logger *logger_i.Logger
}

func Open(ctx context.Context, addr string, db int) (*Store, error) {
	if addr == "" {
		addr = config.RedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              config.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", addr, err)
	}

	logger := logger_i.NewLogger("Redis Store")
	logger.Info("Redis connection established", "addr", addr, "db", db)

	return &Store{client: client, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// NewTestStore wires an externally owned client, for miniredis-backed
// tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store (test)"),
	}
}
