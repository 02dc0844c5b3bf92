// Package symbols resolves token mints to display symbols.
//
// Every lookup ends in a string: either the on-chain symbol or a
// deterministic label built from the first four characters of the mint:
//
//	INV(xxxx)  the mint is not a valid address
//	UNK(xxxx)  no metadata account exists
//	ERR(xxxx)  the lookup or the metadata decoding failed
//	TOK(xxxx)  metadata exists but the symbol is empty
//
// All outcomes are cached, so a mint costs at most one RPC call.
package symbols

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"tokenwise/internal/logger"
	"tokenwise/internal/observability"
	"tokenwise/internal/solana"
)

// Label prefixes.
const (
	LabelInvalid = "INV"
	LabelUnknown = "UNK"
	LabelError   = "ERR"
	LabelToken   = "TOK"
)

// AccountFetcher is the RPC call the resolver needs.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error)
}

// Resolver maps mints to symbols through a Cache.
type Resolver struct {
	rpc     AccountFetcher
	cache   Cache
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewResolver creates a resolver. A nil cache gets a seeded MapCache.
func NewResolver(rpc AccountFetcher, cache Cache, log *logger.Logger, metrics *observability.Metrics) *Resolver {
	if cache == nil {
		cache = NewMapCache()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		rpc:     rpc,
		cache:   cache,
		log:     log.Named("symbols"),
		metrics: metrics,
	}
}

// Resolve returns the display symbol for mint. It never fails; faults
// are logged and turned into labels.
func (r *Resolver) Resolve(ctx context.Context, mint string) string {
	if symbol, ok := r.cache.Get(mint); ok {
		r.metrics.RecordSymbolLookup("cache")
		return symbol
	}

	symbol, outcome := r.lookup(ctx, mint)
	r.cache.Set(mint, symbol)
	r.metrics.RecordSymbolLookup(outcome)
	return symbol
}

func (r *Resolver) lookup(ctx context.Context, mint string) (symbol, outcome string) {
	pda, err := solana.MetadataAddress(mint)
	if err != nil {
		if errors.Is(err, solana.ErrInvalidAddress) {
			return Label(LabelInvalid, mint), LabelInvalid
		}
		r.log.Warnw("derive metadata address failed", "mint", mint, "error", err)
		return Label(LabelError, mint), LabelError
	}

	info, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		r.log.Warnw("fetch metadata account failed", "mint", mint, "pda", pda, "error", err)
		return Label(LabelError, mint), LabelError
	}
	if info == nil {
		return Label(LabelUnknown, mint), LabelUnknown
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		r.log.Warnw("decode metadata account failed", "mint", mint, "error", err)
		return Label(LabelError, mint), LabelError
	}

	meta, err := ParseMetadata(data)
	if err != nil {
		r.log.Debugw("parse metadata failed", "mint", mint, "bytes", len(data), "error", err)
		return Label(LabelError, mint), LabelError
	}

	if meta.Symbol == "" {
		return Label(LabelToken, mint), LabelToken
	}
	return meta.Symbol, "symbol"
}

// Label formats prefix(first four characters of mint).
func Label(prefix, mint string) string {
	return fmt.Sprintf("%s(%s)", prefix, first4(mint))
}

func first4(s string) string {
	runes := []rune(s)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes)
}
