package storage

import (
	"context"
	"fmt"

	"github.com/rl1809/cine-boletos/internal/core/domain"
)

const (
	createMoviesTable = `
		CREATE TABLE IF NOT EXISTS peliculas (
			id INT AUTO_INCREMENT PRIMARY KEY,
			nombre VARCHAR(255) NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			UNIQUE KEY uq_peliculas_nombre (nombre),
			CONSTRAINT chk_peliculas_stock CHECK (stock >= 0)
		)`

	createSalesTable = `
		CREATE TABLE IF NOT EXISTS ventas (
			id INT AUTO_INCREMENT PRIMARY KEY,
			nombre_cliente VARCHAR(255) NOT NULL,
			cantidad INT NOT NULL,
			pelicula VARCHAR(255) NOT NULL,
			CONSTRAINT chk_ventas_cantidad CHECK (cantidad > 0)
		)`

	countMoviesQuery = `SELECT COUNT(*) FROM peliculas`
	seedMovieQuery   = `INSERT IGNORE INTO peliculas (nombre, stock) VALUES (?, ?)`
)

// DefaultCatalog is the demo catalog loaded into an empty peliculas table.
var DefaultCatalog = []domain.Movie{
	{Name: "Spiderman: De Regreso a Casa", Stock: 50},
	{Name: "Doctor Strange en el Multiverso de la Locura", Stock: 40},
	{Name: "Guardianes de la la Galaxia Vol. 3", Stock: 60},
	{Name: "Avatar: El Sentido del Agua", Stock: 35},
}

// Migrate creates the peliculas and ventas tables when they are missing.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createMoviesTable, createSalesTable} {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SeedCatalog inserts movies only when the catalog is empty and reports how
// many rows were added. Concurrent seeders are harmless thanks to the
// unique name.
func (m *MySQLAdapter) SeedCatalog(ctx context.Context, movies []domain.Movie) (int, error) {
	var count int
	if err := m.db.QueryRowContext(ctx, countMoviesQuery).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, mv := range movies {
		result, err := m.db.ExecContext(ctx, seedMovieQuery, mv.Name, mv.Stock)
		if err != nil {
			return inserted, fmt.Errorf("seed movie %q: %w", mv.Name, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
