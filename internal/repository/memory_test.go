package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// checkBlobStore общий контракт для всех реализаций BlobStore
func checkBlobStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != `[1]` {
		t.Fatalf("get: %q %v", got, err)
	}

	// overwrite whole blob
	if err := store.Put(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ = store.Get(ctx, "k")
	if string(got) != `[1,2]` {
		t.Fatalf("expected overwrite, got %q", got)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	// deleting an absent key is not an error
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryBlobs_Contract(t *testing.T) {
	checkBlobStore(t, NewMemoryBlobs())
}

func TestMemoryBlobs_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobs()
	in := []byte("abc")
	_ = store.Put(ctx, "k", in)
	in[0] = 'x'
	got, _ := store.Get(ctx, "k")
	got[1] = 'y'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored blob mutated: %q", again)
	}
}

func TestProductFilter_Match(t *testing.T) {
	seed := SeedProducts()
	count := func(f ProductFilter) int {
		n := 0
		for _, p := range seed {
			if f.Match(p) {
				n++
			}
		}
		return n
	}

	// name contains
	if n := count(ProductFilter{NameSubstring: "ORGÂ"}); n != 1 {
		t.Fatalf("name filter: %d", n)
	}
	if n := count(ProductFilter{Category: "legumes"}); n != 2 {
		t.Fatalf("category filter: %d", n)
	}

	// min
	min := decimal.NewFromInt(8)
	if n := count(ProductFilter{MinPrice: &min}); n != 2 {
		t.Fatalf("min filter: %d", n)
	}

	// max
	max := decimal.RequireFromString("6.20")
	if n := count(ProductFilter{MaxPrice: &max}); n != 2 {
		t.Fatalf("max filter: %d", n)
	}
}
