package refresh

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwise/internal/solana"
	"tokenwise/internal/solana/stub"
	"tokenwise/internal/storage/memory"
)

var ingestNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestIngester(rpc *stub.RPCClient, store *memory.TransactionStore) *Ingester {
	i := NewIngester(rpc, store, 7*24*time.Hour, nil)
	i.now = func() time.Time { return ingestNow }
	return i
}

// buyTx is a swap where owner gains 1 tracked token for 2 USDC.
func buyTx(sig string, blockTime int64, owner string) *solana.Transaction {
	return swapTx(sig, blockTime, owner,
		[]solana.TokenBalance{balance(owner, usdcMint, "2", 0)},
		[]solana.TokenBalance{balance(owner, trackedMint, "1", 0)},
	)
}

func TestIngester_StopsAtLookback(t *testing.T) {
	rpc := stub.NewRPCClient()
	store := memory.NewTransactionStore()
	owner := addr(1)

	recent := ingestNow.Add(-time.Hour).Unix()
	old := ingestNow.Add(-8 * 24 * time.Hour).Unix()

	rpc.AddSignatures(owner, []solana.SignatureInfo{
		{Signature: "new", BlockTime: ptr(recent)},
		{Signature: "failed", BlockTime: ptr(recent - 1), Err: map[string]interface{}{"InstructionError": nil}},
		{Signature: "unrelated", BlockTime: ptr(recent - 2)},
		{Signature: "old", BlockTime: ptr(old)},
	})
	rpc.AddTransaction(buyTx("new", recent, owner))
	rpc.AddTransaction(buyTx("old", old, owner))
	rpc.AddTransaction(swapTx("unrelated", recent-2, owner, nil, []solana.TokenBalance{balance(owner, usdcMint, "5", 0)}))

	n, err := newTestIngester(rpc, store).IngestWallet(context.Background(), owner, trackedMint)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	txs, err := store.ListByWallet(context.Background(), owner, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "new", txs[0].Signature)
	assert.Equal(t, "2.000000", *txs[0].Price)
	assert.Equal(t, 2, rpc.Calls("getTransaction"), "failed and out-of-window signatures are not fetched")
}

func TestIngester_Incremental(t *testing.T) {
	rpc := stub.NewRPCClient()
	store := memory.NewTransactionStore()
	owner := addr(1)
	base := ingestNow.Add(-time.Hour).Unix()

	rpc.AddSignatures(owner, []solana.SignatureInfo{
		{Signature: "s2", BlockTime: ptr(base + 10)},
		{Signature: "s1", BlockTime: ptr(base)},
	})
	rpc.AddTransaction(buyTx("s1", base, owner))
	rpc.AddTransaction(buyTx("s2", base+10, owner))

	ing := newTestIngester(rpc, store)
	ctx := context.Background()

	n, err := ing.IngestWallet(ctx, owner, trackedMint)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Second run re-reads only the newest timestamp and skips it as a duplicate.
	rpc.AddSignatures(owner, []solana.SignatureInfo{
		{Signature: "s3", BlockTime: ptr(base + 20)},
		{Signature: "s2", BlockTime: ptr(base + 10)},
		{Signature: "s1", BlockTime: ptr(base)},
	})
	rpc.AddTransaction(buyTx("s3", base+20, owner))

	before := rpc.Calls("getTransaction")
	n, err = ing.IngestWallet(ctx, owner, trackedMint)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, rpc.Calls("getTransaction")-before)
}

func TestIngester_Pages(t *testing.T) {
	rpc := stub.NewRPCClient()
	store := memory.NewTransactionStore()
	owner := addr(1)
	base := ingestNow.Add(-time.Hour).Unix()

	var sigs []solana.SignatureInfo
	for i := 0; i < 5; i++ {
		sig := fmt.Sprintf("s%d", i)
		ts := base - int64(i)
		sigs = append(sigs, solana.SignatureInfo{Signature: sig, BlockTime: ptr(ts)})
		rpc.AddTransaction(buyTx(sig, ts, owner))
	}
	rpc.AddSignatures(owner, sigs)

	ing := newTestIngester(rpc, store)
	ing.pageSize = 2

	n, err := ing.IngestWallet(context.Background(), owner, trackedMint)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 3, rpc.Calls("getSignaturesForAddress"))
}

func TestIngester_SignatureErrorFails(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Err = fmt.Errorf("node unavailable")

	_, err := newTestIngester(rpc, memory.NewTransactionStore()).IngestWallet(context.Background(), addr(1), trackedMint)
	assert.Error(t, err)
}
