package storage

import (
	"context"

	"flashpool/internal/model"
)

// CounterRecord is one durable lifecycle counter value.
type CounterRecord struct {
	PoolID model.PoolID
	Point  string
	Count  uint64
}

// CounterStore persists per-pool lifecycle counters.
type CounterStore interface {
	LoadAll(ctx context.Context) ([]CounterRecord, error)
	UpsertCounters(ctx context.Context, records []CounterRecord) error
}
