package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestGormBlobs_Contract(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	checkBlobStore(t, store)
}

func TestGormBlobs_RecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	recs := NewRecords(store)
	if _, out := recs.Products(ctx); !out.OK() {
		t.Fatalf("seed: %v", out.Err)
	}
	_ = store.Close()

	// reopen: seed must come back from disk, not regenerated
	store, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if _, err := store.Get(ctx, KeyProducts); err != nil {
		t.Fatalf("products blob missing after reopen: %v", err)
	}
	list, _ := NewRecords(store).Products(ctx)
	if len(list) != 4 {
		t.Fatalf("expected 4 products, got %d", len(list))
	}
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisBlobs_Contract(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()
	checkBlobStore(t, NewRedisBlobs(client, "test:"))
}

func TestRedisBlobs_Prefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisBlobs(client, "shop:")
	if err := store.Put(context.Background(), KeyOrders, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("shop:" + KeyOrders) {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestOpenRedis_BadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "://nope", ""); err == nil {
		t.Fatalf("expected error")
	}
}
