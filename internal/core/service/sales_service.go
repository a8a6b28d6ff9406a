package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/port"
)

type SalesService struct {
	repo   port.SalesRepository
	logger *zap.Logger
}

func NewSalesService(repo port.SalesRepository, logger *zap.Logger) *SalesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesService{repo: repo, logger: logger}
}

func (s *SalesService) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sales: %w", domain.ErrPersistence, err)
	}
	return sales, nil
}

// ClearSales wipes the sales log. Stock is not restored.
func (s *SalesService) ClearSales(ctx context.Context) error {
	if err := s.repo.ClearSales(ctx); err != nil {
		return fmt.Errorf("%w: clear sales: %w", domain.ErrPersistence, err)
	}
	s.logger.Info("sales log cleared")
	return nil
}
