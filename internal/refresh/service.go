package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokenwise/internal/domain"
	"tokenwise/internal/logger"
	"tokenwise/internal/observability"
	"tokenwise/internal/storage"
)

// DefaultInterval is the auto-refresh period of the server.
const DefaultInterval = 15 * time.Minute

// ErrRefreshInProgress is returned when a refresh is already running.
var ErrRefreshInProgress = errors.New("refresh already running")

// Refresher runs one refresh.
type Refresher interface {
	Refresh(ctx context.Context) (*Result, error)
}

// Config selects what a refresh pulls.
type Config struct {
	Mint     string
	Limit    int
	Lookback time.Duration
}

// Result describes a finished refresh run.
type Result struct {
	RunID         string
	Holders       int
	Transactions  int
	FailedWallets int
	Duration      time.Duration
}

// Service refreshes holders and their transactions. Runs are serialized.
type Service struct {
	cfg        Config
	holders    *HolderFetcher
	ingester   *Ingester
	wallets    storage.WalletStore
	topHolders storage.TopHolderStore
	log        *logger.Logger
	metrics    *observability.Metrics

	mu sync.Mutex
}

var _ Refresher = (*Service)(nil)

// NewService wires a refresh service.
func NewService(
	cfg Config,
	holders *HolderFetcher,
	ingester *Ingester,
	stores *storage.Stores,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = storage.DefaultTopLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cfg:        cfg,
		holders:    holders,
		ingester:   ingester,
		wallets:    stores.Wallets,
		topHolders: stores.TopHolders,
		log:        log.Named("refresh"),
		metrics:    metrics,
	}
}

// Refresh fetches the top holders, stores them and ingests each holder's
// transactions. A wallet whose ingestion fails is logged and skipped.
// Returns ErrRefreshInProgress without waiting if another run holds the lock.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log := s.log.With("run_id", res.RunID, "mint", s.cfg.Mint)
	log.Infow("refresh started", "limit", s.cfg.Limit)

	err := s.run(ctx, res, log)
	res.Duration = time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		log.Errorw("refresh failed", "error", err, "duration", res.Duration)
	} else {
		log.Infow("refresh finished",
			"holders", res.Holders,
			"transactions", res.Transactions,
			"failed_wallets", res.FailedWallets,
			"duration", res.Duration,
		)
	}
	s.metrics.RecordRefresh(status, res.Duration, res.Holders)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, res *Result, log *logger.Logger) error {
	wallets, err := s.holders.TopHolders(ctx, s.cfg.Mint, s.cfg.Limit)
	if err != nil {
		return fmt.Errorf("fetch top holders: %w", err)
	}
	res.Holders = len(wallets)

	if err := s.wallets.Upsert(ctx, wallets, s.cfg.Mint); err != nil {
		return fmt.Errorf("store wallets: %w", err)
	}

	snapshot := make([]domain.TopHolder, len(wallets))
	for i, w := range wallets {
		snapshot[i] = domain.TopHolder{Owner: w.Address, TokenBalance: w.Balance}
	}
	if err := s.topHolders.Replace(ctx, snapshot); err != nil {
		return fmt.Errorf("store top holder snapshot: %w", err)
	}

	for _, w := range wallets {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := s.ingester.IngestWallet(ctx, w.Address, s.cfg.Mint)
		res.Transactions += n
		s.metrics.RecordTransactionsIngested(n)
		if err != nil {
			res.FailedWallets++
			log.Warnw("ingest wallet failed", "wallet", w.Address, "error", err)
			continue
		}
		log.Debugw("wallet ingested", "wallet", w.Address, "transactions", n)
	}

	return nil
}

// RunEvery refreshes once per interval until ctx is cancelled. The first
// run starts immediately.
func (s *Service) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) && ctx.Err() == nil {
			s.log.Warnw("scheduled refresh failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
