package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokenwise/internal/logger"
	"tokenwise/internal/solana"
	"tokenwise/internal/storage"
)

// Ingestion defaults.
const (
	DefaultLookback  = 7 * 24 * time.Hour
	SignaturePageMax = 1000
)

// TransactionSource is the RPC surface the ingester needs.
type TransactionSource interface {
	GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
}

// Ingester stores a wallet's recent trades of one mint.
type Ingester struct {
	rpc      TransactionSource
	store    storage.TransactionStore
	lookback time.Duration
	pageSize int
	now      func() time.Time
	log      *logger.Logger
}

// NewIngester creates an Ingester. lookback <= 0 uses DefaultLookback.
func NewIngester(rpc TransactionSource, store storage.TransactionStore, lookback time.Duration, log *logger.Logger) *Ingester {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ingester{
		rpc:      rpc,
		store:    store,
		lookback: lookback,
		pageSize: SignaturePageMax,
		now:      time.Now,
		log:      log.Named("ingest"),
	}
}

// IngestWallet walks the wallet's signatures newest first and stores every
// transaction that moved mint for the wallet. It stops at the lookback
// window or at the newest timestamp already stored, whichever is later.
// Signatures sharing the stored timestamp are re-read and skipped as
// duplicates. Returns the number of transactions inserted.
func (i *Ingester) IngestWallet(ctx context.Context, wallet, mint string) (int, error) {
	since := i.now().Add(-i.lookback).Unix()
	latest, ok, err := i.store.LatestTimestamp(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("latest timestamp of %s: %w", wallet, err)
	}

	sigs, err := i.collectSignatures(ctx, wallet, since, latest, ok)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		tx, err := i.rpc.GetTransaction(ctx, sig)
		if err != nil {
			i.log.Warnw("fetch transaction failed", "wallet", wallet, "signature", sig, "error", err)
			continue
		}
		if tx == nil || tx.Meta.Failed() {
			continue
		}

		record, relevant := Classify(tx, wallet, mint)
		if !relevant {
			continue
		}

		if err := i.store.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return inserted, fmt.Errorf("insert transaction %s: %w", sig, err)
		}
		inserted++
	}

	return inserted, nil
}

// collectSignatures pages backwards until a signature falls outside the window.
func (i *Ingester) collectSignatures(ctx context.Context, wallet string, since, latest int64, haveLatest bool) ([]string, error) {
	var (
		out    []string
		before string
	)

	for {
		page, err := i.rpc.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{
			Before: before,
			Limit:  i.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("get signatures of %s: %w", wallet, err)
		}
		if len(page) == 0 {
			return out, nil
		}

		for _, s := range page {
			if s.BlockTime == nil {
				continue
			}
			if *s.BlockTime < since || (haveLatest && *s.BlockTime < latest) {
				return out, nil
			}
			if s.Err != nil {
				continue
			}
			out = append(out, s.Signature)
		}

		if len(page) < i.pageSize {
			return out, nil
		}
		before = page[len(page)-1].Signature
	}
}
