package counterhook

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/events"
	"flashpool/internal/hooks"
	"flashpool/internal/model"
	"flashpool/internal/storage"
)

var sender = common.HexToAddress("0x01")

func testKey() model.PoolKey {
	return model.PoolKey{
		Currency0:   model.Currency{Address: common.HexToAddress("0xa0")},
		Currency1:   model.Currency{Address: common.HexToAddress("0xb0")},
		Fee:         model.Fee030,
		TickSpacing: model.TickSpacing030,
	}
}

func TestCountersCommitAndDiscard(t *testing.T) {
	ctx := context.Background()
	h, err := New(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	key := testKey()
	id := key.ID()

	res, err := h.BeforeSwap(ctx, sender, key, model.SwapParams{AmountSpecified: big.NewInt(1)})
	if err != nil {
		t.Fatalf("before swap: %v", err)
	}
	if res.Ack != hooks.PointBeforeSwap {
		t.Fatalf("wrong ack: %s", res.Ack)
	}
	if got := h.Count(id, hooks.PointBeforeSwap); got != 0 {
		t.Fatalf("count visible before commit: %d", got)
	}

	if err := h.CommitSession(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := h.Count(id, hooks.PointBeforeSwap); got != 1 {
		t.Fatalf("count after commit: %d != 1", got)
	}

	// A discarded session leaves counters untouched.
	if _, err := h.BeforeSwap(ctx, sender, key, model.SwapParams{AmountSpecified: big.NewInt(1)}); err != nil {
		t.Fatalf("before swap: %v", err)
	}
	h.DiscardSession()
	if got := h.Count(id, hooks.PointBeforeSwap); got != 1 {
		t.Fatalf("count after discard: %d != 1", got)
	}
}

func TestDonateRefused(t *testing.T) {
	ctx := context.Background()
	h, err := New(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := h.BeforeDonate(ctx, sender, testKey(), big.NewInt(1), big.NewInt(1)); !errors.Is(err, model.ErrUnsupported) {
		t.Fatalf("before donate: %v", err)
	}
	if _, err := h.AfterDonate(ctx, sender, testKey(), big.NewInt(1), big.NewInt(1)); !errors.Is(err, model.ErrUnsupported) {
		t.Fatalf("after donate: %v", err)
	}
}

func TestEventsDeliveredOnlyOnCommit(t *testing.T) {
	ctx := context.Background()
	var delivered []events.Event
	h, err := New(ctx, nil, nil, func(ev events.Event) { delivered = append(delivered, ev) })
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	key := testKey()
	if _, err := h.BeforeInitialize(ctx, sender, key, big.NewInt(1)); err != nil {
		t.Fatalf("before initialize: %v", err)
	}
	h.DiscardSession()
	if len(delivered) != 0 {
		t.Fatalf("aborted session delivered events: %+v", delivered)
	}

	if _, err := h.BeforeInitialize(ctx, sender, key, big.NewInt(1)); err != nil {
		t.Fatalf("before initialize: %v", err)
	}
	if err := h.CommitSession(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(delivered) != 1 {
		t.Fatalf("expected one event, got %d", len(delivered))
	}
	if delivered[0].Point != hooks.PointBeforeInitialize.String() {
		t.Fatalf("event point mismatch: %s", delivered[0].Point)
	}
}

func TestCountersRecoverFromStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counters.json")
	store := storage.NewFileStore(path)

	h, err := New(ctx, store, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	key := testKey()
	if _, err := h.BeforeSwap(ctx, sender, key, model.SwapParams{AmountSpecified: big.NewInt(1)}); err != nil {
		t.Fatalf("before swap: %v", err)
	}
	if err := h.CommitSession(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A fresh hook over the same store sees the committed count.
	recovered, err := New(ctx, store, nil, nil)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if got := recovered.Count(key.ID(), hooks.PointBeforeSwap); got != 1 {
		t.Fatalf("recovered count: %d != 1", got)
	}
}

type failingStore struct{}

func (failingStore) LoadAll(ctx context.Context) ([]storage.CounterRecord, error) {
	return nil, nil
}

func (failingStore) UpsertCounters(ctx context.Context, records []storage.CounterRecord) error {
	return errors.New("store down")
}

func TestCommitFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	h, err := New(ctx, failingStore{}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	key := testKey()
	if _, err := h.BeforeSwap(ctx, sender, key, model.SwapParams{AmountSpecified: big.NewInt(1)}); err != nil {
		t.Fatalf("before swap: %v", err)
	}
	if err := h.CommitSession(ctx); err == nil {
		t.Fatalf("expected commit failure")
	}
	if got := h.Count(key.ID(), hooks.PointBeforeSwap); got != 0 {
		t.Fatalf("count published despite store failure: %d", got)
	}
}
