package port

import (
	"context"
	"errors"

	"github.com/rl1809/cine-boletos/internal/core/domain"
)

type CatalogRepository interface {
	// FindByName returns domain.ErrMovieNotFound when no movie has that name
	FindByName(ctx context.Context, name string) (*domain.Movie, error)

	// ListMovies returns the whole catalog ordered by id
	ListMovies(ctx context.Context) ([]domain.Movie, error)
}

type SalesRepository interface {
	// ListSales returns every recorded sale ordered by id
	ListSales(ctx context.Context) ([]domain.Sale, error)

	// ClearSales removes every sale record
	ClearSales(ctx context.Context) error
}

// PurchaseTx is the set of writes a purchase may perform. All calls made on
// one PurchaseTx commit or roll back together.
type PurchaseTx interface {
	// DecrementStock atomically subtracts quantity when stock allows it and
	// returns the remaining stock. It fails with domain.ErrMovieNotFound or
	// domain.ErrInsufficientStock and leaves the row untouched in that case.
	DecrementStock(ctx context.Context, movieName string, quantity int) (int, error)

	// AppendSale inserts a sale and returns it with its assigned id
	AppendSale(ctx context.Context, sale domain.Sale) (domain.Sale, error)
}

type PurchaseRepository interface {
	// RunInTx runs fn inside a single transaction. A non-nil error from fn
	// rolls back every write made through tx.
	RunInTx(ctx context.Context, fn func(tx PurchaseTx) error) error
}

// ErrTxOutcomeUnknown marks a commit whose result could not be confirmed.
// Stock and sales may disagree afterwards and need reconciling.
var ErrTxOutcomeUnknown = errors.New("transaction outcome unknown")
