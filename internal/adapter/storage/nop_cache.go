package storage

import (
	"context"

	"github.com/rl1809/cine-boletos/internal/core/domain"
)

// NopCache stands in for Redis when REDIS_ADDR is unset: every catalog read
// misses and every idempotency key is granted.
type NopCache struct{}

func (NopCache) GetCatalog(ctx context.Context) ([]domain.Movie, bool, error) {
	return nil, false, nil
}

func (NopCache) CatalogVersion(ctx context.Context) (int64, error) { return 0, nil }

func (NopCache) SetCatalog(ctx context.Context, version int64, movies []domain.Movie) (bool, error) {
	return false, nil
}

func (NopCache) InvalidateCatalog(ctx context.Context) error { return nil }

func (NopCache) AcquireIdempotency(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (NopCache) ReleaseIdempotency(ctx context.Context, key string) error { return nil }
