package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
	"tokenwise/internal/storage/migrations"
)

func TestWalletStore_RankAndTopHolders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewWalletStore(db)

	err := store.Upsert(ctx, []domain.Wallet{
		{Address: "A", Balance: 10000},
		{Address: "B", Balance: 9500},
		{Address: "C", Balance: 9500},
	}, "mint1")
	require.NoError(t, err)

	addr, err := store.AddressByRank(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", addr)

	addr, err = store.AddressByRank(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "C", addr, "ties keep insertion order")

	_, err = store.AddressByRank(ctx, 4)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.AddressByRank(ctx, -1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	top, err := store.TopHolders(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestWalletStore_TopHoldersDefaultLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewWalletStore(db)

	wallets := make([]domain.Wallet, 0, 40)
	for i := 0; i < 40; i++ {
		wallets = append(wallets, domain.Wallet{Address: fmt.Sprintf("w%02d", i), Balance: int64(1000 - i)})
	}
	require.NoError(t, store.Upsert(ctx, wallets, "mint"))

	top, err := store.TopHolders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, storage.DefaultTopLimit)
	assert.Equal(t, "w00", top[0].Address)
	assert.Equal(t, "w29", top[29].Address)
}

func TestWalletStore_UpsertUpdatesBalance(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewWalletStore(db)

	require.NoError(t, store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 1}, {Address: "B", Balance: 2}}, "m"))
	require.NoError(t, store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 3}}, "m"))

	top, err := store.TopHolders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Address)
	assert.Equal(t, int64(3), top[0].Balance)

	assert.ErrorIs(t, store.Upsert(ctx, []domain.Wallet{{Address: ""}}, "m"), storage.ErrInvalidInput)
}

func TestTransactionStore_InsertListAndRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewTransactionStore(db)

	txs := []domain.Transaction{
		{Signature: "s1", Wallet: "W", Timestamp: 100, Type: domain.TxTypeBuy, Amount: decimal.RequireFromString("100"), Price: ptr("1.5"), Protocol: ptr("Jupiter")},
		{Signature: "s2", Wallet: "W", Timestamp: 200, Type: domain.TxTypeSell, Amount: decimal.RequireFromString("50.000000001"), Price: ptr("2.5")},
		{Signature: "s3", Wallet: "W", Timestamp: 300, Type: domain.TxTypeBuy, Amount: decimal.RequireFromString("50")},
		{Signature: "s4", Wallet: "other", Timestamp: 250, Type: domain.TxTypeBuy, Amount: decimal.RequireFromString("1")},
	}
	for i := range txs {
		require.NoError(t, store.Insert(ctx, &txs[i]))
	}

	err := store.Insert(ctx, &txs[0])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.ListByWallet(ctx, "W", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "s3", got[0].Signature, "newest first")
	assert.Nil(t, got[0].Price)
	assert.Nil(t, got[0].Protocol)
	assert.Equal(t, "50.000000001", got[1].Amount.String(), "amount keeps full precision")
	assert.Equal(t, "Jupiter", *got[2].Protocol)

	got, err = store.ListByWallet(ctx, "W", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.ListInRange(ctx, "W", 100, 200)
	require.NoError(t, err)
	require.Len(t, got, 2, "range is inclusive on both ends")
	assert.Equal(t, "s2", got[0].Signature)
	assert.Equal(t, "s1", got[1].Signature)

	latest, ok, err := store.LatestTimestamp(ctx, "W")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(300), latest)

	_, ok, err = store.LatestTimestamp(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionStore_ReadsLegacyRealColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Rows written by older tools store numbers as REAL.
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (signature, wallet, timestamp, type, amount, price, protocol)
		VALUES ('legacy', 'W', 1700000000.0, 'BUY', 12.5, 0.25, NULL)
	`)
	require.NoError(t, err)

	got, err := NewTransactionStore(db).ListByWallet(ctx, "W", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1700000000), got[0].Timestamp)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, got[0].Price)
	assert.Equal(t, "0.25", *got[0].Price)
}

func TestTopHolderStore_ReplaceIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewTopHolderStore(db)

	require.NoError(t, store.Replace(ctx, []domain.TopHolder{
		{Owner: "wallet1", TokenBalance: 10000},
		{Owner: "wallet2", TokenBalance: 9500},
	}))
	require.NoError(t, store.Replace(ctx, []domain.TopHolder{{Owner: "wallet9", TokenBalance: 1}}))

	holders, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "wallet9", holders[0].Owner)

	// Make the second insert fail after the DELETE has run.
	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER no_boom BEFORE INSERT ON top_token_holders
		WHEN NEW.owner = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom'); END
	`)
	require.NoError(t, err)

	err = store.Replace(ctx, []domain.TopHolder{{Owner: "x", TokenBalance: 2}, {Owner: "boom", TokenBalance: 1}})
	require.Error(t, err)

	holders, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1, "failed replace must keep the previous snapshot")
	assert.Equal(t, "wallet9", holders[0].Owner)
}

func TestOpen_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokenwise.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db.DB))
	require.NoError(t, NewWalletStore(db).Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 5}}, "m"))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db.DB), "migrations are idempotent")

	addr, err := NewWalletStore(db).AddressByRank(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", addr)
}
