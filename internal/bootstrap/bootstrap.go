// Package bootstrap builds the stores and clients both binaries share.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tokenwise/internal/config"
	"tokenwise/internal/logger"
	"tokenwise/internal/observability"
	"tokenwise/internal/solana"
	"tokenwise/internal/storage"
	chstore "tokenwise/internal/storage/clickhouse"
	"tokenwise/internal/storage/memory"
	"tokenwise/internal/storage/migrations"
	pgstore "tokenwise/internal/storage/postgres"
	"tokenwise/internal/storage/sqlite"
)

// connectTimeout bounds opening and migrating a store.
const connectTimeout = 30 * time.Second

// StoreOptions tune OpenStores per process.
type StoreOptions struct {
	// MaxConns caps the Postgres pool; the CLI uses 1.
	MaxConns int32
}

// OpenStores opens the configured backend and applies its migrations.
// When a ClickHouse DSN is set, transactions live in ClickHouse and the
// rest stays on the main backend.
func OpenStores(ctx context.Context, cfg config.StoreConfig, opts StoreOptions, log *logger.Logger) (*storage.Stores, error) {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	stores, err := openMain(ctx, cfg, opts, log)
	if err != nil {
		return nil, err
	}

	if cfg.ClickhouseDSN == "" {
		return stores, nil
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn.Conn); err != nil {
		conn.Close()
		stores.Close()
		return nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	log.Infow("transactions stored in clickhouse")

	closeMain := stores.Close
	stores.Transactions = chstore.NewTransactionStore(conn)
	stores.Close = func() {
		conn.Close()
		closeMain()
	}
	return stores, nil
}

func openMain(ctx context.Context, cfg config.StoreConfig, opts StoreOptions, log *logger.Logger) (*storage.Stores, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		log.Infow("using in-memory store")
		return memory.NewStores(), nil

	case config.StorePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Infow("using postgres store")
		return pgstore.NewStores(pool), nil

	case config.StoreSQLite, "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunSQLiteMigrations(ctx, db.DB); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		log.Infow("using sqlite store", "path", cfg.SQLitePath)
		return sqlite.NewStores(db), nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Backend)
	}
}

// NewRPCClient builds the Solana RPC client with rate limiting and
// per-call metrics.
func NewRPCClient(cfg config.SolanaConfig, metrics *observability.Metrics) *solana.HTTPClient {
	opts := []solana.ClientOption{
		solana.WithObserver(metrics.RecordRPC),
	}
	if cfg.RPCRateLimit > 0 {
		opts = append(opts, solana.WithRateLimit(cfg.RPCRateLimit, 1))
	}
	return solana.NewHTTPClient(cfg.RPCEndpoint, opts...)
}
