package memory

import (
	"context"
	"errors"
	"testing"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

func TestWalletStore_RankByBalance(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []domain.Wallet{
		{Address: "B", Balance: 9500},
		{Address: "A", Balance: 10000},
	}, "mint1")
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	first, err := store.AddressByRank(ctx, 1)
	if err != nil {
		t.Fatalf("AddressByRank(1) failed: %v", err)
	}
	if first != "A" {
		t.Errorf("rank 1: got %s, want A", first)
	}

	second, err := store.AddressByRank(ctx, 2)
	if err != nil {
		t.Fatalf("AddressByRank(2) failed: %v", err)
	}
	if second != "B" {
		t.Errorf("rank 2: got %s, want B", second)
	}

	for _, pos := range []int{3, 0, -1} {
		_, err := store.AddressByRank(ctx, pos)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("AddressByRank(%d): expected ErrNotFound, got %v", pos, err)
		}
	}
}

func TestWalletStore_TopHoldersLimitAndTies(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	wallets := []domain.Wallet{
		{Address: "w1", Balance: 100},
		{Address: "w2", Balance: 300},
		{Address: "w3", Balance: 100},
		{Address: "w4", Balance: 200},
	}
	if err := store.Upsert(ctx, wallets, "mint1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	top, err := store.TopHolders(ctx, 3)
	if err != nil {
		t.Fatalf("TopHolders failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 wallets, got %d", len(top))
	}

	want := []string{"w2", "w4", "w1"}
	for i, w := range top {
		if w.Address != want[i] {
			t.Errorf("position %d: got %s, want %s", i+1, w.Address, want[i])
		}
	}

	all, _ := store.TopHolders(ctx, 10)
	if len(all) != 4 {
		t.Errorf("expected 4 wallets with large limit, got %d", len(all))
	}
	if all[3].Address != "w3" {
		t.Errorf("tie should keep insertion order, got %s last", all[3].Address)
	}
}

func TestWalletStore_UpsertUpdatesBalance(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	_ = store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 1}, {Address: "B", Balance: 2}}, "m")
	_ = store.Upsert(ctx, []domain.Wallet{{Address: "A", Balance: 5}}, "m")

	addr, err := store.AddressByRank(ctx, 1)
	if err != nil {
		t.Fatalf("AddressByRank failed: %v", err)
	}
	if addr != "A" {
		t.Errorf("expected A to move to rank 1, got %s", addr)
	}

	top, _ := store.TopHolders(ctx, 10)
	if len(top) != 2 {
		t.Errorf("upsert must not duplicate wallets, got %d", len(top))
	}
}

func TestWalletStore_UpsertRejectsEmptyAddress(t *testing.T) {
	store := NewWalletStore()
	err := store.Upsert(context.Background(), []domain.Wallet{{Address: ""}}, "m")
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
