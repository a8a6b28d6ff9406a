package storage

import (
	"context"
	"sync"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/port"
)

// MemoryAdapter keeps movies and sales in process memory. RunInTx holds the
// adapter lock for the whole callback and applies writes only on success,
// which gives the same all-or-nothing behaviour as the MySQL adapter.
type MemoryAdapter struct {
	mu          sync.Mutex
	movies      []domain.Movie
	sales       []domain.Sale
	nextMovieID int
	nextSaleID  int
}

func NewMemoryAdapter(movies ...domain.Movie) *MemoryAdapter {
	m := &MemoryAdapter{nextMovieID: 1, nextSaleID: 1}
	for _, mv := range movies {
		mv.ID = m.nextMovieID
		m.nextMovieID++
		m.movies = append(m.movies, mv)
	}
	return m
}

func (m *MemoryAdapter) FindByName(ctx context.Context, name string) (*domain.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mv := range m.movies {
		if mv.Name == name {
			found := mv
			return &found, nil
		}
	}
	return nil, domain.ErrMovieNotFound
}

func (m *MemoryAdapter) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	movies := make([]domain.Movie, len(m.movies))
	copy(movies, m.movies)
	return movies, nil
}

func (m *MemoryAdapter) ListSales(ctx context.Context) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sales := make([]domain.Sale, len(m.sales))
	copy(sales, m.sales)
	return sales, nil
}

func (m *MemoryAdapter) ClearSales(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sales = nil
	m.nextSaleID = 1
	return nil
}

func (m *MemoryAdapter) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		movies:     append([]domain.Movie(nil), m.movies...),
		sales:      append([]domain.Sale(nil), m.sales...),
		nextSaleID: m.nextSaleID,
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.movies = tx.movies
	m.sales = tx.sales
	m.nextSaleID = tx.nextSaleID
	return nil
}

type memoryTx struct {
	movies     []domain.Movie
	sales      []domain.Sale
	nextSaleID int
}

func (t *memoryTx) DecrementStock(ctx context.Context, movieName string, quantity int) (int, error) {
	for i := range t.movies {
		if t.movies[i].Name != movieName {
			continue
		}
		if t.movies[i].Stock < quantity {
			return t.movies[i].Stock, domain.ErrInsufficientStock
		}
		t.movies[i].Stock -= quantity
		return t.movies[i].Stock, nil
	}
	return 0, domain.ErrMovieNotFound
}

func (t *memoryTx) AppendSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	sale.ID = t.nextSaleID
	t.nextSaleID++
	t.sales = append(t.sales, sale)
	return sale, nil
}
