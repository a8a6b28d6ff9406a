package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/port"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetCatalog(ctx context.Context) ([]domain.Movie, bool, error) {
	args := m.Called(ctx)
	movies, _ := args.Get(0).([]domain.Movie)
	return movies, args.Bool(1), args.Error(2)
}

func (m *mockCache) CatalogVersion(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) SetCatalog(ctx context.Context, version int64, movies []domain.Movie) (bool, error) {
	args := m.Called(ctx, version, movies)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) InvalidateCatalog(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockIdempotency struct {
	mock.Mock
}

func (m *mockIdempotency) AcquireIdempotency(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// failingSaleRepo lets DecrementStock through and fails AppendSale, so the
// wrapped repository must roll the decrement back.
type failingSaleRepo struct {
	port.PurchaseRepository
}

func (r failingSaleRepo) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	return r.PurchaseRepository.RunInTx(ctx, func(tx port.PurchaseTx) error {
		return fn(failingSaleTx{tx})
	})
}

type failingSaleTx struct {
	port.PurchaseTx
}

func (failingSaleTx) AppendSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	return domain.Sale{}, errors.New("insert rejected")
}

type unknownOutcomeRepo struct{}

func (unknownOutcomeRepo) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	return port.ErrTxOutcomeUnknown
}

// committedButUnconfirmedRepo applies the purchase and then reports the
// commit as unconfirmed, like a connection dropped after COMMIT was sent.
type committedButUnconfirmedRepo struct {
	port.PurchaseRepository
}

func (r committedButUnconfirmedRepo) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	if err := r.PurchaseRepository.RunInTx(ctx, fn); err != nil {
		return err
	}
	return fmt.Errorf("%w: commit tx: connection reset", port.ErrTxOutcomeUnknown)
}

// cancelAfterCommit cancels the caller's context once the transaction has
// committed, as when a client disconnects mid-response.
type cancelAfterCommit struct {
	port.PurchaseRepository
	cancel context.CancelFunc
}

func (r cancelAfterCommit) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	err := r.PurchaseRepository.RunInTx(ctx, fn)
	r.cancel()
	return err
}

type keySet struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (k *keySet) AcquireIdempotency(ctx context.Context, key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys[key] {
		return false, nil
	}
	k.keys[key] = true
	return true, nil
}

func (k *keySet) ReleaseIdempotency(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, key)
	return nil
}
