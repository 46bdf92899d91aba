package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// LeadStore is the wired lead repository plus its lifecycle hooks.
type LeadStore struct {
	Repo    leads.Repository
	Backend string
	Ping    func(ctx context.Context) error
	Close   func()
}

// BuildLeadStore opens the backend chosen by LEAD_STORE (postgres, sqlite or
// memory; auto picks from DATABASE_URL / SQLITE_PATH).
func BuildLeadStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*LeadStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	backend := cfg.ResolvedLeadStore()
	switch backend {
	case appconfig.StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres lead store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("lead store ready", "backend", backend)
		return &LeadStore{
			Repo:    leads.NewPostgresRepository(pool),
			Backend: backend,
			Ping:    pool.Ping,
			Close:   pool.Close,
		}, nil

	case appconfig.StoreSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			return nil, fmt.Errorf("bootstrap: SQLITE_PATH is required for the sqlite lead store")
		}
		db, err := leads.OpenSQLite(path, strings.EqualFold(cfg.LogLevel, "debug"))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("bootstrap: sqlite handle: %w", err)
		}
		logger.Info("lead store ready", "backend", backend, "path", path)
		return &LeadStore{
			Repo:    leads.NewGormRepository(db),
			Backend: backend,
			Ping:    sqlDB.PingContext,
			Close:   func() { _ = sqlDB.Close() },
		}, nil

	case appconfig.StoreMemory:
		if cfg.Env == "production" {
			logger.Warn("using in-memory lead store in production; leads will not survive a restart")
		} else {
			logger.Info("lead store ready", "backend", backend)
		}
		return &LeadStore{
			Repo:    leads.NewInMemoryRepository(),
			Backend: backend,
			Close:   func() {},
		}, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown LEAD_STORE %q", cfg.LeadStore)
}
