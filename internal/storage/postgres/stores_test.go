package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

func TestWalletStore_RankAndTopHolders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletStore(pool)

	err := store.Upsert(ctx, []domain.Wallet{
		{Address: "A", Balance: 10000},
		{Address: "B", Balance: 9500},
		{Address: "C", Balance: 9500},
	}, "mint1")
	require.NoError(t, err)

	addr, err := store.AddressByRank(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", addr)

	addr, err = store.AddressByRank(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", addr, "ties keep insertion order")

	_, err = store.AddressByRank(ctx, 4)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.AddressByRank(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	top, err := store.TopHolders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, domain.Wallet{Address: "A", Balance: 10000}, top[0])
}

func TestWalletStore_UpsertUpdatesBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletStore(pool)

	require.NoError(t, store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 1}, {Address: "B", Balance: 2}}, "m"))
	require.NoError(t, store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 3}}, "m"))

	top, err := store.TopHolders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Address)
	assert.Equal(t, int64(3), top[0].Balance)
}

func TestTransactionStore_InsertListAndRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	for i := 0; i < 35; i++ {
		err := store.Insert(ctx, &domain.Transaction{
			Signature: fmt.Sprintf("sig-%02d", i),
			Wallet:    "A",
			Timestamp: int64(1700000000 + i),
			Type:      domain.TxTypeBuy,
			Amount:    decimal.RequireFromString("0.000000001"),
			Price:     ptr("1.25"),
			Protocol:  ptr("Jupiter"),
		})
		require.NoError(t, err)
	}

	err := store.Insert(ctx, &domain.Transaction{
		Signature: "sig-00", Wallet: "A", Timestamp: 1, Type: domain.TxTypeSell, Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	txs, err := store.ListByWallet(ctx, "A", 0)
	require.NoError(t, err)
	require.Len(t, txs, storage.DefaultTransactionLimit)
	assert.Equal(t, int64(1700000034), txs[0].Timestamp)
	assert.True(t, decimal.RequireFromString("0.000000001").Equal(txs[0].Amount), "amount precision preserved")
	require.NotNil(t, txs[0].Price)
	assert.Equal(t, "1.25", *txs[0].Price)
	assert.Nil(t, txs[0].CounterTokenMint)

	ranged, err := store.ListInRange(ctx, "A", 1700000010, 1700000012)
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, "sig-12", ranged[0].Signature)
	assert.Equal(t, "sig-10", ranged[2].Signature)

	empty, err := store.ListInRange(ctx, "A", 1700000012, 1700000010)
	require.NoError(t, err)
	assert.Empty(t, empty)

	latest, ok, err := store.LatestTimestamp(ctx, "A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000034), latest)

	_, ok, err = store.LatestTimestamp(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTopHolderStore_ReplaceIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTopHolderStore(pool)

	require.NoError(t, store.Replace(ctx, []domain.TopHolder{
		{Owner: "wallet1", TokenBalance: 10000},
		{Owner: "wallet2", TokenBalance: 9500},
		{Owner: "wallet3", TokenBalance: 9000},
	}))

	require.NoError(t, store.Replace(ctx, []domain.TopHolder{{Owner: "wallet9", TokenBalance: 1}}))
	holders, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "wallet9", holders[0].Owner)

	// Make the bulk insert fail after the DELETE has run.
	_, err = pool.Exec(ctx, `ALTER TABLE top_token_holders ADD CONSTRAINT no_boom CHECK (owner <> 'boom')`)
	require.NoError(t, err)

	err = store.Replace(ctx, []domain.TopHolder{{Owner: "x", TokenBalance: 2}, {Owner: "boom", TokenBalance: 1}})
	require.Error(t, err)

	holders, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1, "failed replace must keep the previous snapshot")
	assert.Equal(t, "wallet9", holders[0].Owner)
}
