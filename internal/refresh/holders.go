// Package refresh pulls the top holders of a mint and their recent swaps
// from Solana RPC into the stores.
package refresh

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
	"tokenwise/internal/solana"
)

// TokenAccountLister lists the token accounts of a mint.
type TokenAccountLister interface {
	GetTokenAccountsByMint(ctx context.Context, mint string) ([]solana.TokenAccount, error)
}

// HolderFetcher computes the largest holders of a mint.
type HolderFetcher struct {
	rpc TokenAccountLister
}

// NewHolderFetcher creates a HolderFetcher.
func NewHolderFetcher(rpc TokenAccountLister) *HolderFetcher {
	return &HolderFetcher{rpc: rpc}
}

type ownerBalance struct {
	owner    string
	raw      decimal.Decimal
	decimals int
}

// TopHolders returns up to limit owners of mint by balance, largest first.
// Empty accounts are dropped and accounts of the same owner are merged.
// Balances are whole tokens, truncated.
func (f *HolderFetcher) TopHolders(ctx context.Context, mint string, limit int) ([]domain.Wallet, error) {
	accounts, err := f.rpc.GetTokenAccountsByMint(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get token accounts of %s: %w", mint, err)
	}

	byOwner := make(map[string]*ownerBalance)
	var order []*ownerBalance

	for _, acc := range accounts {
		if acc.Mint != "" && acc.Mint != mint {
			continue
		}
		if !solana.IsValidAddress(acc.Owner) {
			continue
		}
		raw, err := decimal.NewFromString(acc.Amount)
		if err != nil || !raw.IsPositive() {
			continue
		}

		if b, ok := byOwner[acc.Owner]; ok {
			b.raw = b.raw.Add(raw)
			continue
		}
		b := &ownerBalance{owner: acc.Owner, raw: raw, decimals: acc.Decimals}
		byOwner[acc.Owner] = b
		order = append(order, b)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].raw.GreaterThan(order[j].raw)
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	wallets := make([]domain.Wallet, len(order))
	for i, b := range order {
		wallets[i] = domain.Wallet{
			Address: b.owner,
			Balance: b.raw.Shift(-int32(b.decimals)).IntPart(),
		}
	}
	return wallets, nil
}
