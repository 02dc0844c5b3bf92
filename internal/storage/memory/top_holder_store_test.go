package memory

import (
	"context"
	"errors"
	"testing"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

func TestTopHolderStore_ReplaceKeepsOnlyLatest(t *testing.T) {
	store := NewTopHolderStore()
	ctx := context.Background()

	first := []domain.TopHolder{{Owner: "a", TokenBalance: 1}, {Owner: "b", TokenBalance: 2}, {Owner: "c", TokenBalance: 3}}
	if err := store.Replace(ctx, first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	second := []domain.TopHolder{{Owner: "x", TokenBalance: 10}}
	if err := store.Replace(ctx, second); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, _ := store.List(ctx)
	if len(got) != 1 || got[0].Owner != "x" {
		t.Errorf("expected only latest snapshot, got %+v", got)
	}
}

func TestTopHolderStore_FailedReplaceKeepsPrevious(t *testing.T) {
	store := NewTopHolderStore()
	ctx := context.Background()

	_ = store.Replace(ctx, []domain.TopHolder{{Owner: "a", TokenBalance: 1}, {Owner: "b", TokenBalance: 2}})

	err := store.Replace(ctx, []domain.TopHolder{{Owner: "x", TokenBalance: 5}, {Owner: "", TokenBalance: 4}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	got, _ := store.List(ctx)
	if len(got) != 2 {
		t.Fatalf("expected previous snapshot of 2 rows, got %d", len(got))
	}
	if got[0].Owner != "b" {
		t.Errorf("expected balance DESC order, got %s first", got[0].Owner)
	}
}
