package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds the settings of one service process. Every binary loads the
// same struct; fields a service does not use are simply ignored.
type Config struct {
	Service  string
	Port     string
	GRPCPort string

	// Database
	MySQLDSN       string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBTLS          string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxLife  time.Duration
	DBAutoMigrate  bool
	DBConnectTries int
	SeedCatalog    bool

	// Redis is optional; empty disables the catalog cache and idempotency keys
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CatalogTTL     time.Duration
	IdempotencyTTL time.Duration

	// Gateway
	MoviesURL       string
	SalesURL        string
	PurchasesURL    string
	UpstreamTimeout time.Duration

	LogLevel        string
	LogFormat       string
	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Load reads the configuration of service from the environment. defaultPort
// is used when PORT is unset.
func Load(service, defaultPort string) (*Config, error) {
	cfg := &Config{
		Service:  service,
		Port:     getEnv("PORT", defaultPort),
		GRPCPort: getEnv("GRPC_PORT", ""),

		MySQLDSN:       getEnv("MYSQL_DSN", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 3306),
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     getEnv("DB_PASS", ""),
		DBName:         getEnv("DB_NAME", "cineboletos"),
		DBTLS:          getEnv("DB_TLS", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLife:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBAutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		DBConnectTries: getEnvInt("DB_CONNECT_ATTEMPTS", 10),
		SeedCatalog:    getEnvBool("SEED_CATALOG", true),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		CatalogTTL:     getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		MoviesURL:       lookupEnv("PELICULAS_SERVICE_URL", "http://localhost:3001"),
		SalesURL:        lookupEnv("VENTAS_SERVICE_URL", "http://localhost:3002"),
		PurchasesURL:    lookupEnv("COMPRAS_SERVICE_URL", "http://localhost:3003"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.GRPCPort != "" {
		if _, err := strconv.Atoi(c.GRPCPort); err != nil {
			return fmt.Errorf("invalid GRPC_PORT %q", c.GRPCPort)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json/console)", c.LogFormat)
	}

	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and %d, got %d", c.DBMaxOpenConns, c.DBMaxIdleConns)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}

	// An empty backend URL is reported per request by the gateway, so only
	// malformed values are rejected here.
	for name, raw := range map[string]string{
		"PELICULAS_SERVICE_URL": c.MoviesURL,
		"VENTAS_SERVICE_URL":    c.SalesURL,
		"COMPRAS_SERVICE_URL":   c.PurchasesURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	return nil
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return ":" + c.Port
}

// GRPCAddress returns the gRPC listen address, or "" when gRPC is disabled.
func (c *Config) GRPCAddress() string {
	if c.GRPCPort == "" {
		return ""
	}
	return ":" + c.GRPCPort
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// lookupEnv keeps an explicitly empty value, which is how a backend URL is
// switched off.
func lookupEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal
		}
		return i
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal
		}
		return d
	}
	return defaultVal
}
