package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/metrics"
	"github.com/rl1809/cine-boletos/internal/port"
)

// CatalogService serves movie reads. The full listing goes through the
// cache; single lookups always hit the repository.
type CatalogService struct {
	repo   port.CatalogRepository
	cache  port.CatalogCache
	logger *zap.Logger
}

func NewCatalogService(repo port.CatalogRepository, cache port.CatalogCache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	movies, ok, err := s.cache.GetCatalog(ctx)
	switch {
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		s.logger.Warn("catalog cache read failed", zap.Error(err))
	case ok:
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		s.logger.Debug("catalog cache hit", zap.Int("movies", len(movies)))
		return movies, nil
	default:
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	// The generation must be read before the rows, otherwise a purchase
	// committed in between could be cached over.
	version, verErr := s.cache.CatalogVersion(ctx)
	if verErr != nil {
		s.logger.Warn("catalog cache version read failed", zap.Error(verErr))
	}

	movies, err = s.repo.ListMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list movies: %w", domain.ErrPersistence, err)
	}

	if verErr == nil {
		stored, err := s.cache.SetCatalog(ctx, version, movies)
		switch {
		case err != nil:
			s.logger.Warn("failed to cache catalog", zap.Error(err))
		case !stored:
			s.logger.Debug("catalog changed while loading, cache fill skipped")
		}
	}
	return movies, nil
}

func (s *CatalogService) GetMovie(ctx context.Context, name string) (*domain.Movie, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: movie name is required", domain.ErrValidation)
	}

	movie, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrMovieNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: find movie: %w", domain.ErrPersistence, err)
	}
	return movie, nil
}
