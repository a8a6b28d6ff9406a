package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type MySQLOptions struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// TLS is passed to the driver's tls parameter ("", "true", "skip-verify")
	TLS string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// FormatDSN returns DSN as-is when set, otherwise builds one from the parts.
func (o MySQLOptions) FormatDSN() string {
	if o.DSN != "" {
		return o.DSN
	}
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", o.Host, o.Port)
	cfg.DBName = o.Database
	cfg.ParseTime = true
	cfg.TLSConfig = o.TLS
	return cfg.FormatDSN()
}

// OpenMySQL opens the pool and waits until the server answers a ping.
func OpenMySQL(ctx context.Context, opts MySQLOptions, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", opts.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	attempts := max(opts.ConnectAttempts, 1)
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		logger.Info("waiting for mysql", zap.Int("attempt", i), zap.Int("of", attempts), zap.Error(err))
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	db.Close()
	return nil, fmt.Errorf("ping mysql after %d attempts: %w", attempts, err)
}
