package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TxType is the direction of a wallet transaction relative to the tracked mint.
type TxType string

const (
	TxTypeBuy  TxType = "BUY"
	TxTypeSell TxType = "SELL"
)

// UnknownProtocol labels transactions whose protocol is null or empty.
const UnknownProtocol = "Unknown"

// Transaction represents a stored wallet transaction.
// Corresponds to transactions table. Immutable once inserted.
type Transaction struct {
	Signature        string          // PK
	Wallet           string          // owner address
	Timestamp        int64           // unix seconds, UTC
	Type             TxType          // BUY or SELL
	Amount           decimal.Decimal // tracked-mint amount, exact
	Price            *string         // raw stored value (nullable, may be unparseable)
	Protocol         *string         // nullable
	CounterTokenMint *string         // nullable
}

// ParsedPrice returns the price as a decimal.
// Null, empty and unparseable values report ok=false.
func (t *Transaction) ParsedPrice() (decimal.Decimal, bool) {
	if t.Price == nil {
		return decimal.Zero, false
	}
	raw := strings.TrimSpace(*t.Price)
	if raw == "" || strings.EqualFold(raw, "none") || strings.EqualFold(raw, "null") {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}

// ProtocolLabel returns the protocol, or UnknownProtocol when null or empty.
func (t *Transaction) ProtocolLabel() string {
	if t.Protocol == nil || strings.TrimSpace(*t.Protocol) == "" {
		return UnknownProtocol
	}
	return *t.Protocol
}
