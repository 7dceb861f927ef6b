package storage

import (
	"context"
	"path/filepath"
	"testing"

	"flashpool/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counters.json")
	store := NewFileStore(path)

	var pool model.PoolID
	pool[0] = 0xab

	records := []CounterRecord{
		{PoolID: pool, Point: "before_swap", Count: 3},
		{PoolID: pool, Point: "after_swap", Count: 3},
	}
	if err := store.UpsertCounters(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A second upsert overwrites, not appends.
	if err := store.UpsertCounters(ctx, []CounterRecord{
		{PoolID: pool, Point: "before_swap", Count: 4},
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	loaded, err := NewFileStore(path).LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	counts := make(map[string]uint64)
	for _, rec := range loaded {
		if rec.PoolID != pool {
			t.Fatalf("pool id mismatch: %s", rec.PoolID.Hex())
		}
		counts[rec.Point] = rec.Count
	}
	if counts["before_swap"] != 4 || counts["after_swap"] != 3 {
		t.Fatalf("counts mismatch: %+v", counts)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %+v", records)
	}
}
