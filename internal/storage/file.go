package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"flashpool/internal/model"
)

// FileStore keeps counters in a local JSON file, written atomically
// via a temp-file rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileRecord struct {
	Counters  map[string]map[string]uint64 `json:"counters"`
	UpdatedAt string                       `json:"updated_at"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadAll(ctx context.Context) ([]CounterRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return nil, err
	}

	var records []CounterRecord
	for poolHex, points := range rec.Counters {
		id, err := parsePoolID(poolHex)
		if err != nil {
			return nil, err
		}
		for point, count := range points {
			records = append(records, CounterRecord{PoolID: id, Point: point, Count: count})
		}
	}
	return records, nil
}

func (s *FileStore) UpsertCounters(ctx context.Context, records []CounterRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return err
	}
	for _, r := range records {
		poolHex := r.PoolID.Hex()
		if rec.Counters[poolHex] == nil {
			rec.Counters[poolHex] = make(map[string]uint64)
		}
		rec.Counters[poolHex][r.Point] = r.Count
	}
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create counter dir: %w", err)
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write counters tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename counters: %w", err)
	}
	return nil
}

func (s *FileStore) read() (fileRecord, error) {
	rec := fileRecord{Counters: make(map[string]map[string]uint64)}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return rec, nil
		}
		return rec, fmt.Errorf("read counters: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse counters: %w", err)
	}
	if rec.Counters == nil {
		rec.Counters = make(map[string]map[string]uint64)
	}
	return rec, nil
}

func parsePoolID(s string) (model.PoolID, error) {
	var id model.PoolID
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(id) {
		return id, fmt.Errorf("invalid pool id %q", s)
	}
	copy(id[:], raw)
	return id, nil
}
