// Command server runs the TokenWise refresh service:
// - HTTP API: refresh trigger, symbol lookups, metrics
// - Auto refresh of the top holders every REFRESH_INTERVAL
// - Optional websocket watcher that refreshes when the mint trades
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tokenwise/internal/bootstrap"
	"tokenwise/internal/config"
	"tokenwise/internal/httpapi"
	"tokenwise/internal/logger"
	"tokenwise/internal/observability"
	"tokenwise/internal/refresh"
	"tokenwise/internal/solana"
	"tokenwise/internal/symbols"
)

// shutdownTimeout bounds graceful shutdown after the first signal.
const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	interval := flag.Duration("refresh-interval", cfg.Interval, "Auto refresh interval")
	noAutoRefresh := flag.Bool("no-auto-refresh", false, "Disable the periodic refresh")
	watch := flag.Bool("watch", cfg.WSEndpoint != "", "Refresh when the mint shows up in program logs (needs SOLANA_WS_ENDPOINT)")
	flag.Parse()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *addr, *interval, *noAutoRefresh, *watch); err != nil {
		log.Errorw("server stopped with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Infow("shutdown complete")
}

func run(cfg *config.Config, log *logger.Logger, addr string, interval time.Duration, noAutoRefresh, watch bool) error {
	if watch && cfg.WSEndpoint == "" {
		return errors.New("--watch needs TOKENWISE_SOLANA_WS_ENDPOINT")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")

	stores, err := bootstrap.OpenStores(ctx, cfg.StoreConfig, bootstrap.StoreOptions{}, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	rpc := bootstrap.NewRPCClient(cfg.SolanaConfig, metrics)

	cache, err := symbols.NewLRUCache(cfg.SymbolCacheSize)
	if err != nil {
		return fmt.Errorf("create symbol cache: %w", err)
	}
	resolver := symbols.NewResolver(rpc, cache, log, metrics)

	service := refresh.NewService(
		refresh.Config{
			Mint:     cfg.TargetMint,
			Limit:    cfg.HolderLimit,
			Lookback: cfg.Lookback,
		},
		refresh.NewHolderFetcher(rpc),
		refresh.NewIngester(rpc, stores.Transactions, cfg.Lookback, log),
		stores,
		log,
		metrics,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(service, resolver, metrics, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infow("server running", "addr", addr, "mint", cfg.TargetMint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if !noAutoRefresh {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Infow("auto refresh enabled", "interval", interval)
			service.RunEvery(ctx, interval)
		}()
	}

	if watch {
		ws := solana.NewWSClient(cfg.WSEndpoint, nil, log)
		watcher := refresh.NewWatcher(ws, service, cfg.TargetMint, refresh.DefaultDebounce, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnw("watcher stopped", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Infow("received signal, shutting down", "signal", sig.String())
	case runErr = <-errCh:
	}

	cancel()

	// A second signal forces exit.
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received second signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			log.Warnw("graceful shutdown timed out, forcing exit", "timeout", shutdownTimeout)
			os.Exit(1)
		}
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}

	wg.Wait()
	return runErr
}
