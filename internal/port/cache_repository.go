package port

import (
	"context"

	"github.com/rl1809/cine-boletos/internal/core/domain"
)

type CatalogCache interface {
	// GetCatalog returns ok=false on a cache miss
	GetCatalog(ctx context.Context) (movies []domain.Movie, ok bool, err error)

	// CatalogVersion returns the current catalog generation. Read it before
	// loading the rows that will be passed to SetCatalog.
	CatalogVersion(ctx context.Context) (int64, error)

	// SetCatalog stores movies only if the generation is still version, so a
	// fill that raced with an invalidation is dropped. stored reports which.
	SetCatalog(ctx context.Context, version int64, movies []domain.Movie) (stored bool, err error)

	// InvalidateCatalog bumps the generation and drops the cached catalog
	// after stock changes
	InvalidateCatalog(ctx context.Context) error
}

type IdempotencyStore interface {
	// AcquireIdempotency claims a key, returns false if it is already held
	AcquireIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed purchase can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}

// Cache is a single backend serving both the catalog cache and the
// idempotency keys.
type Cache interface {
	CatalogCache
	IdempotencyStore
}
