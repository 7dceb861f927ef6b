package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashpool/internal/storage"
)

// Store provides Postgres persistence for lifecycle counters.
type Store struct {
	pool         *pgxpool.Pool
	maxRetries   int
	retryBackoff time.Duration
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, maxRetries: 3, retryBackoff: 200 * time.Millisecond}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadAll returns every persisted counter.
func (s *Store) LoadAll(ctx context.Context) ([]storage.CounterRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT pool_id, point, count FROM pool_lifecycle_counters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storage.CounterRecord
	for rows.Next() {
		var (
			poolID []byte
			rec    storage.CounterRecord
		)
		if err := rows.Scan(&poolID, &rec.Point, &rec.Count); err != nil {
			return nil, err
		}
		if len(poolID) != len(rec.PoolID) {
			return nil, fmt.Errorf("invalid pool id length %d", len(poolID))
		}
		copy(rec.PoolID[:], poolID)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertCounters writes a batch of counter values, retrying transient
// failures with exponential backoff.
func (s *Store) UpsertCounters(ctx context.Context, records []storage.CounterRecord) error {
	if len(records) == 0 {
		return nil
	}
	return withRetry(ctx, s.maxRetries, s.retryBackoff, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(`
				INSERT INTO pool_lifecycle_counters (pool_id, point, count, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (pool_id, point) DO UPDATE
				SET count = EXCLUDED.count, updated_at = now()
			`, r.PoolID[:], r.Point, r.Count)
		}

		br := s.pool.SendBatch(ctx, batch)
		defer br.Close()

		for range records {
			if _, err := br.Exec(); err != nil {
				return err
			}
		}
		return nil
	})
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
