package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/port"
)

// MySQL error raised when a CHECK constraint rejects a row.
const errCheckConstraintViolated = 3819

const (
	selectMovieByNameQuery = `SELECT id, nombre, stock FROM peliculas WHERE nombre = ?`
	listMoviesQuery        = `SELECT id, nombre, stock FROM peliculas ORDER BY id`
	selectStockQuery       = `SELECT stock FROM peliculas WHERE nombre = ?`

	decrementStockQuery = `
		UPDATE peliculas
		SET stock = stock - ?
		WHERE nombre = ? AND stock >= ?`

	insertSaleQuery = `
		INSERT INTO ventas (nombre_cliente, cantidad, pelicula)
		VALUES (?, ?, ?)`

	listSalesQuery  = `SELECT id, nombre_cliente, cantidad, pelicula FROM ventas ORDER BY id`
	clearSalesQuery = `TRUNCATE TABLE ventas`
)

// MySQLAdapter implements the catalog, sales and purchase repositories over
// a shared *sql.DB. The caller owns the handle and closes it on shutdown.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) FindByName(ctx context.Context, name string) (*domain.Movie, error) {
	var mv domain.Movie
	err := m.db.QueryRowContext(ctx, selectMovieByNameQuery, name).Scan(&mv.ID, &mv.Name, &mv.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query movie: %w", err)
	}
	return &mv, nil
}

func (m *MySQLAdapter) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	rows, err := m.db.QueryContext(ctx, listMoviesQuery)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		var mv domain.Movie
		if err := rows.Scan(&mv.ID, &mv.Name, &mv.Stock); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func (m *MySQLAdapter) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := m.db.QueryContext(ctx, listSalesQuery)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.CustomerName, &s.Quantity, &s.MovieName); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func (m *MySQLAdapter) ClearSales(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, clearSalesQuery); err != nil {
		return fmt.Errorf("truncate sales: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RunInTx(ctx context.Context, fn func(tx port.PurchaseTx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %w", port.ErrTxOutcomeUnknown, err)
	}
	return nil
}

type mysqlTx struct {
	tx *sql.Tx
}

// DecrementStock runs the conditional update first so the row lock is taken
// before anything is read. Zero affected rows means either no such movie or
// not enough stock; the follow-up read tells them apart.
func (t *mysqlTx) DecrementStock(ctx context.Context, movieName string, quantity int) (int, error) {
	result, err := t.tx.ExecContext(ctx, decrementStockQuery, quantity, movieName, quantity)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == errCheckConstraintViolated {
			return 0, domain.ErrInsufficientStock
		}
		return 0, fmt.Errorf("update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	var stock int
	err = t.tx.QueryRowContext(ctx, selectStockQuery, movieName).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrMovieNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}

	if rows == 0 {
		return stock, domain.ErrInsufficientStock
	}
	return stock, nil
}

func (t *mysqlTx) AppendSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	result, err := t.tx.ExecContext(ctx, insertSaleQuery, sale.CustomerName, sale.Quantity, sale.MovieName)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Sale{}, fmt.Errorf("last insert id: %w", err)
	}
	sale.ID = int(id)
	return sale, nil
}
