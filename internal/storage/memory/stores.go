package memory

import "tokenwise/internal/storage"

// NewStores returns a fresh set of in-memory stores.
func NewStores() *storage.Stores {
	return &storage.Stores{
		Wallets:      NewWalletStore(),
		Transactions: NewTransactionStore(),
		TopHolders:   NewTopHolderStore(),
		Close:        func() {},
	}
}
