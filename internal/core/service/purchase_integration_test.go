package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cine-boletos/internal/adapter/storage"
	"github.com/rl1809/cine-boletos/internal/core/domain"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	db      *storage.MySQLAdapter
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/cineboletos?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &testEnv{
		redis: rdb,
		mysql: db,
		cache: storage.NewRedisAdapter(rdb, time.Minute, time.Hour),
		db:    adapter,
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

// seedMovie inserts a movie with a unique name and removes it and its sales
// when the test ends.
func (e *testEnv) seedMovie(t *testing.T, stock int) string {
	name := "integration-" + uuid.NewString()
	ctx := context.Background()
	if _, err := e.mysql.ExecContext(ctx, `INSERT INTO peliculas (nombre, stock) VALUES (?, ?)`, name, stock); err != nil {
		t.Fatalf("seed movie: %v", err)
	}
	t.Cleanup(func() {
		e.mysql.ExecContext(ctx, `DELETE FROM ventas WHERE pelicula = ?`, name)
		e.mysql.ExecContext(ctx, `DELETE FROM peliculas WHERE nombre = ?`, name)
	})
	return name
}

func (e *testEnv) stockAndSold(t *testing.T, name string) (int, int) {
	ctx := context.Background()
	var stock, sold int
	if err := e.mysql.QueryRowContext(ctx, `SELECT stock FROM peliculas WHERE nombre = ?`, name).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if err := e.mysql.QueryRowContext(ctx, `SELECT COALESCE(SUM(cantidad), 0) FROM ventas WHERE pelicula = ?`, name).Scan(&sold); err != nil {
		t.Fatalf("read sales: %v", err)
	}
	return stock, sold
}

func TestIntegration_FullPurchaseFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	initialStock := 10
	movie := env.seedMovie(t, initialStock)
	svc := NewPurchaseService(env.db, env.cache, env.cache, nil)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	totalRequests := 20

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), domain.PurchaseRequest{
				CustomerName:   "user",
				Quantity:       1,
				MovieName:      movie,
				IdempotencyKey: uuid.NewString(),
			})
			if err == nil {
				successCount.Add(1)
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successful purchases, got %d", initialStock, successCount.Load())
	}

	stock, sold := env.stockAndSold(t, movie)
	if stock != 0 {
		t.Errorf("expected MySQL stock 0, got %d", stock)
	}
	if sold != initialStock-stock {
		t.Errorf("sales sum %d does not match stock consumed %d", sold, initialStock-stock)
	}
}

func TestIntegration_IdempotencyPreventsDoubleSale(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	movie := env.seedMovie(t, 10)
	svc := NewPurchaseService(env.db, env.cache, env.cache, nil)
	key := "same-request-" + uuid.NewString()
	t.Cleanup(func() { env.redis.Del(context.Background(), idempotencyKeyPrefix+key) })

	req := domain.PurchaseRequest{CustomerName: "user", Quantity: 1, MovieName: movie, IdempotencyKey: key}

	if _, err := svc.Purchase(context.Background(), req); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}

	_, err := svc.Purchase(context.Background(), req)
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}

	stock, sold := env.stockAndSold(t, movie)
	if stock != 9 || sold != 1 {
		t.Errorf("expected stock 9 and 1 sold, got %d and %d", stock, sold)
	}
}

func TestIntegration_FailedPurchaseFreesIdempotencyKey(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	movie := env.seedMovie(t, 1)
	svc := NewPurchaseService(env.db, env.cache, env.cache, nil)
	key := "retry-" + uuid.NewString()
	t.Cleanup(func() { env.redis.Del(context.Background(), idempotencyKeyPrefix+key) })

	_, err := svc.Purchase(context.Background(), domain.PurchaseRequest{
		CustomerName: "user", Quantity: 2, MovieName: movie, IdempotencyKey: key,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}

	_, err = svc.Purchase(context.Background(), domain.PurchaseRequest{
		CustomerName: "user", Quantity: 1, MovieName: movie, IdempotencyKey: key,
	})
	if err != nil {
		t.Errorf("retry with the same key failed: %v", err)
	}
}

func TestIntegration_PurchaseInvalidatesCatalog(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	movie := env.seedMovie(t, 5)
	ctx := context.Background()
	catalog := NewCatalogService(env.db, env.cache, nil)
	purchases := NewPurchaseService(env.db, env.cache, env.cache, nil)

	if _, err := catalog.ListMovies(ctx); err != nil {
		t.Fatalf("list movies: %v", err)
	}
	if _, err := purchases.Purchase(ctx, domain.PurchaseRequest{CustomerName: "user", Quantity: 2, MovieName: movie}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	movies, err := catalog.ListMovies(ctx)
	if err != nil {
		t.Fatalf("list movies: %v", err)
	}
	for _, m := range movies {
		if m.Name == movie && m.Stock != 3 {
			t.Errorf("expected catalog stock 3 after purchase, got %d", m.Stock)
		}
	}
}
