package domain

// Wallet is a token holder row from the wallets table.
// Rank is not stored: it is the 1-based position by Balance descending.
type Wallet struct {
	Address string // PK
	Balance int64  // whole tokens
}

// TopHolder is one row of the top_token_holders snapshot.
// The snapshot is replaced wholesale on every refresh.
type TopHolder struct {
	Owner        string
	TokenBalance int64
}
