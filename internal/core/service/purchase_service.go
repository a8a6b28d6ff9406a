package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/metrics"
	"github.com/rl1809/cine-boletos/internal/port"
)

const idempotencyKeyPrefix = "compra:"

// PurchaseService sells tickets. It holds no lock of its own: the
// repository transaction is the only serialization point, so several
// instances may run against the same database.
type PurchaseService struct {
	repo   port.PurchaseRepository
	cache  port.CatalogCache
	idem   port.IdempotencyStore
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPurchaseService(repo port.PurchaseRepository, cache port.CatalogCache, idem port.IdempotencyStore, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		repo:   repo,
		cache:  cache,
		idem:   idem,
		logger: logger,
		tracer: otel.Tracer("purchase-service"),
	}
}

// Purchase validates req, decrements the movie's stock and records the sale
// in one transaction. Failures leave stock and sales untouched.
func (s *PurchaseService) Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	ctx, span := s.tracer.Start(ctx, "purchase")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.finish(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("movie.name", req.MovieName),
		attribute.Int("purchase.quantity", req.Quantity),
	)

	key := ""
	if req.IdempotencyKey != "" {
		key = idempotencyKeyPrefix + req.IdempotencyKey
		ok, err := s.idem.AcquireIdempotency(ctx, key)
		if err != nil {
			err = fmt.Errorf("%w: idempotency check: %w", domain.ErrPersistence, err)
			s.finish(span, err)
			return nil, err
		}
		if !ok {
			s.finish(span, domain.ErrDuplicateRequest)
			return nil, domain.ErrDuplicateRequest
		}
	}

	result, err := s.commit(ctx, req)
	if err != nil {
		// A commit with an unknown outcome may have sold the tickets, so its
		// key stays held until the TTL expires.
		if key != "" && !errors.Is(err, port.ErrTxOutcomeUnknown) {
			if relErr := s.idem.ReleaseIdempotency(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Warn("failed to release idempotency key",
					zap.String("key", key),
					zap.Error(relErr),
				)
			}
		}
		s.finish(span, err)
		return nil, err
	}

	// The sale is committed; a caller that went away must not leave the
	// cached catalog behind.
	if err := s.cache.InvalidateCatalog(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}

	metrics.TicketsSoldTotal.Add(float64(req.Quantity))
	span.SetAttributes(attribute.Int("movie.stock_remaining", result.RemainingStock))
	s.finish(span, nil)

	s.logger.Info("sale recorded",
		zap.Int("sale_id", result.Sale.ID),
		zap.String("customer", req.CustomerName),
		zap.String("movie", req.MovieName),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock_remaining", result.RemainingStock),
	)
	return result, nil
}

func (s *PurchaseService) commit(ctx context.Context, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	var result domain.PurchaseResult

	err := s.repo.RunInTx(ctx, func(tx port.PurchaseTx) error {
		remaining, err := tx.DecrementStock(ctx, req.MovieName, req.Quantity)
		if err != nil {
			return err
		}

		sale, err := tx.AppendSale(ctx, domain.Sale{
			CustomerName: req.CustomerName,
			Quantity:     req.Quantity,
			MovieName:    req.MovieName,
		})
		if err != nil {
			return fmt.Errorf("append sale: %w", err)
		}

		result = domain.PurchaseResult{Sale: sale, RemainingStock: remaining}
		return nil
	})

	switch {
	case err == nil:
		return &result, nil
	case errors.Is(err, domain.ErrMovieNotFound), errors.Is(err, domain.ErrInsufficientStock):
		return nil, err
	case errors.Is(err, port.ErrTxOutcomeUnknown):
		s.logger.Error("CRITICAL purchase commit outcome unknown, stock and sales may diverge",
			zap.String("customer", req.CustomerName),
			zap.String("movie", req.MovieName),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
	default:
		s.logger.Error("purchase rolled back",
			zap.String("movie", req.MovieName),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

func (s *PurchaseService) finish(span trace.Span, err error) {
	result := resultOf(err)
	metrics.PurchasesTotal.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.String("purchase.result", result))
	if result == metrics.ResultError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, domain.ErrMovieNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return metrics.ResultInsufficientStock
	case errors.Is(err, domain.ErrDuplicateRequest):
		return metrics.ResultDuplicate
	default:
		return metrics.ResultError
	}
}
