package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cine-boletos/internal/core/domain"
)

const (
	catalogKey               = "peliculas:all"
	catalogVersionKey        = "peliculas:version"
	defaultIdempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client         *redis.Client
	catalogTTL     time.Duration
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, catalogTTL, idempotencyTTL time.Duration) *RedisAdapter {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyKeyTTL
	}
	return &RedisAdapter{
		client:         client,
		catalogTTL:     catalogTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

func (r *RedisAdapter) GetCatalog(ctx context.Context) ([]domain.Movie, bool, error) {
	val, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var movies []domain.Movie
	if err := json.Unmarshal(val, &movies); err != nil {
		return nil, false, fmt.Errorf("decode cached catalog: %w", err)
	}
	return movies, true, nil
}

func (r *RedisAdapter) CatalogVersion(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, catalogVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetCatalog writes under WATCH on the generation key: an invalidation that
// lands after version was read, or while the write is in flight, wins.
func (r *RedisAdapter) SetCatalog(ctx context.Context, version int64, movies []domain.Movie) (bool, error) {
	data, err := json.Marshal(movies)
	if err != nil {
		return false, fmt.Errorf("encode catalog: %w", err)
	}

	stored := false
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, catalogVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, catalogKey, data, r.catalogTTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, catalogVersionKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored, nil
}

func (r *RedisAdapter) InvalidateCatalog(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, catalogVersionKey)
		pipe.Del(ctx, catalogKey)
		return nil
	})
	return err
}

func (r *RedisAdapter) AcquireIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
