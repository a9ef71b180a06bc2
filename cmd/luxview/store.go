package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"luxview/internal/config"
	"luxview/internal/store"
)

// redisStore owns the client it was opened with.
type redisStore struct {
	*store.Redis
	client *redis.Client
}

func (r *redisStore) Close() error {
	return errors.Join(r.Redis.Close(), r.client.Close())
}

func openStore(ctx context.Context, cfg config.Config, writerID string, logger *slog.Logger) (store.Store, error) {
	opts := []store.Option{store.WithWriterID(writerID), store.WithLogger(logger)}
	switch cfg.Store.Backend {
	case config.BackendMemory:
		m, err := store.NewMemory(nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.BackendFile:
		f, err := store.OpenFile(cfg.Store.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return f, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		r, err := store.OpenRedis(ctx, client, cfg.Store.RedisPrefix, opts...)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return &redisStore{Redis: r, client: client}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
