package refresh

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
	"tokenwise/internal/solana"
)

// pricePlaces is the number of decimal places stored for prices.
const pricePlaces = 6

// Protocol names.
const (
	ProtocolJupiter = "Jupiter"
	ProtocolRaydium = "Raydium"
	ProtocolOrca    = "Orca"
	ProtocolPumpFun = "Pump.fun"
)

var protocolPrograms = map[string]string{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4": ProtocolJupiter,
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA8fvKXYbXUJJqRUrZP": ProtocolJupiter,
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": ProtocolRaydium,
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": ProtocolRaydium,
	"CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C": ProtocolRaydium,
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  ProtocolOrca,
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": ProtocolOrca,
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  ProtocolPumpFun,
}

// Checked in order against lowercased log lines when no program matches.
var protocolLogHints = []struct {
	needle   string
	protocol string
}{
	{"jupiter", ProtocolJupiter},
	{"raydium", ProtocolRaydium},
	{"orca", ProtocolOrca},
	{"whirlpool", ProtocolOrca},
}

// Classify derives the wallet's trade of mint from a parsed transaction.
// ok is false when the wallet's mint balance did not change.
func Classify(tx *solana.Transaction, wallet, mint string) (*domain.Transaction, bool) {
	if tx == nil || tx.Meta == nil {
		return nil, false
	}

	deltas := ownerDeltas(tx.Meta, wallet)
	delta := deltas[mint]
	if delta.IsZero() {
		return nil, false
	}

	out := &domain.Transaction{
		Signature: tx.Signature,
		Wallet:    wallet,
		Timestamp: tx.BlockTime,
		Type:      domain.TxTypeSell,
		Amount:    delta.Abs(),
	}
	if delta.IsPositive() {
		out.Type = domain.TxTypeBuy
	}

	if counterMint, counterDelta, ok := counterLeg(deltas, mint); ok {
		price := counterDelta.Abs().DivRound(out.Amount, pricePlaces).StringFixed(pricePlaces)
		out.Price = &price
		out.CounterTokenMint = &counterMint
	}

	protocol := DetectProtocol(tx)
	out.Protocol = &protocol

	return out, true
}

// ownerDeltas returns post minus pre UI amounts per mint for accounts owned by wallet.
func ownerDeltas(meta *solana.TransactionMeta, wallet string) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)

	apply := func(balances []solana.TokenBalance, sign int64) {
		for _, b := range balances {
			if b.Owner != wallet {
				continue
			}
			raw, err := decimal.NewFromString(b.Amount)
			if err != nil {
				continue
			}
			ui := raw.Shift(-int32(b.Decimals)).Mul(decimal.NewFromInt(sign))
			deltas[b.Mint] = deltas[b.Mint].Add(ui)
		}
	}

	apply(meta.PreTokenBalances, -1)
	apply(meta.PostTokenBalances, 1)
	return deltas
}

// counterLeg picks the other mint with the largest absolute change.
func counterLeg(deltas map[string]decimal.Decimal, mint string) (string, decimal.Decimal, bool) {
	mints := make([]string, 0, len(deltas))
	for m, d := range deltas {
		if m != mint && !d.IsZero() {
			mints = append(mints, m)
		}
	}
	if len(mints) == 0 {
		return "", decimal.Zero, false
	}

	sort.Slice(mints, func(i, j int) bool {
		ai, aj := deltas[mints[i]].Abs(), deltas[mints[j]].Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return mints[i] < mints[j]
	})
	return mints[0], deltas[mints[0]], true
}

// DetectProtocol names the swap venue from invoked programs, then from logs.
func DetectProtocol(tx *solana.Transaction) string {
	var programs []string
	if tx.Message != nil {
		programs = append(programs, tx.Message.ProgramIDs...)
		programs = append(programs, tx.Message.AccountKeys...)
	}
	if tx.Meta != nil {
		programs = append(programs, tx.Meta.InnerProgramIDs...)
	}

	for _, p := range programs {
		if name, ok := protocolPrograms[p]; ok {
			return name
		}
	}

	if tx.Meta != nil {
		for _, hint := range protocolLogHints {
			for _, line := range tx.Meta.LogMessages {
				if strings.Contains(strings.ToLower(line), hint.needle) {
					return hint.protocol
				}
			}
		}
	}

	return domain.UnknownProtocol
}
