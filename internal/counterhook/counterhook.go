// Package counterhook is a concrete lifecycle hook: it counts every
// committed occurrence of each non-donate lifecycle point per pool and
// emits one observability event per occurrence. Donate is refused
// outright so callers cannot assume it succeeds silently.
//
// Increments and events made during a session are buffered and join
// the session's all-or-nothing unit: the controller commits or
// discards them together with the rest of the session.
package counterhook

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flashpool/internal/events"
	"flashpool/internal/hooks"
	"flashpool/internal/model"
	"flashpool/internal/storage"
)

type counterKey struct {
	pool  model.PoolID
	point hooks.Point
}

// CounterHook implements hooks.Hook and hooks.SessionParticipant.
type CounterHook struct {
	mu        sync.RWMutex
	committed map[counterKey]uint64
	pending   map[counterKey]uint64

	store   storage.CounterStore
	emitter *events.Emitter
	logger  *zap.Logger
}

// New builds a counter hook, recovering persisted counts from the
// store when one is configured.
func New(ctx context.Context, store storage.CounterStore, logger *zap.Logger, sink events.Sink) (*CounterHook, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CounterHook{
		committed: make(map[counterKey]uint64),
		pending:   make(map[counterKey]uint64),
		store:     store,
		emitter:   events.NewEmitter(logger, sink),
		logger:    logger,
	}
	if store != nil {
		records, err := store.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load counters: %w", err)
		}
		for _, rec := range records {
			point, ok := pointByName(rec.Point)
			if !ok {
				return nil, fmt.Errorf("unknown lifecycle point %q", rec.Point)
			}
			h.committed[counterKey{pool: rec.PoolID, point: point}] = rec.Count
		}
	}
	return h, nil
}

// Permissions is the capability set this hook is meant to be
// registered with: every lifecycle point, no override deltas. The
// donate bits are set on purpose so the refusal is observable.
func (h *CounterHook) Permissions() hooks.Permissions {
	return hooks.Permissions{
		BeforeInitialize:      true,
		AfterInitialize:       true,
		BeforeAddLiquidity:    true,
		AfterAddLiquidity:     true,
		BeforeRemoveLiquidity: true,
		AfterRemoveLiquidity:  true,
		BeforeSwap:            true,
		AfterSwap:             true,
		BeforeDonate:          true,
		AfterDonate:           true,
	}
}

// Count returns the committed counter for one (pool, point).
func (h *CounterHook) Count(pool model.PoolID, point hooks.Point) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.committed[counterKey{pool: pool, point: point}]
}

// bump buffers one increment and one event for the open session.
func (h *CounterHook) bump(point hooks.Point, key model.PoolKey, ev events.Event) hooks.Result {
	h.mu.Lock()
	h.pending[counterKey{pool: key.ID(), point: point}]++
	h.mu.Unlock()

	ev.Point = point.String()
	ev.PoolID = key.ID().Hex()
	h.emitter.Emit(ev)

	return hooks.Acknowledge(point)
}

// CommitSession publishes buffered increments, writes the affected
// counters through the store, and delivers buffered events.
func (h *CounterHook) CommitSession(ctx context.Context) error {
	h.mu.Lock()
	pending := h.pending
	h.pending = make(map[counterKey]uint64)
	dirty := make([]storage.CounterRecord, 0, len(pending))
	for key, n := range pending {
		h.committed[key] += n
		dirty = append(dirty, storage.CounterRecord{
			PoolID: key.pool,
			Point:  key.point.String(),
			Count:  h.committed[key],
		})
	}
	h.mu.Unlock()

	if h.store != nil && len(dirty) > 0 {
		if err := h.store.UpsertCounters(ctx, dirty); err != nil {
			// The in-memory publish cannot stand if durable state
			// failed; roll the increments back and abort the session.
			h.mu.Lock()
			for key, n := range pending {
				h.committed[counterKey{pool: key.pool, point: key.point}] -= n
			}
			h.mu.Unlock()
			h.emitter.Discard()
			return fmt.Errorf("persist counters: %w", err)
		}
	}

	h.emitter.Flush()
	return nil
}

// DiscardSession drops every buffered increment and event.
func (h *CounterHook) DiscardSession() {
	h.mu.Lock()
	h.pending = make(map[counterKey]uint64)
	h.mu.Unlock()
	h.emitter.Discard()
}

func pointByName(name string) (hooks.Point, bool) {
	for _, p := range hooks.Points {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// Lifecycle handlers.

func (h *CounterHook) BeforeInitialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int) (hooks.Result, error) {
	return h.bump(hooks.PointBeforeInitialize, key, events.Event{
		Sender:       sender.Hex(),
		SqrtPriceX96: sqrtPriceX96.String(),
	}), nil
}

func (h *CounterHook) AfterInitialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int, tick int32) (hooks.Result, error) {
	return h.bump(hooks.PointAfterInitialize, key, events.Event{
		Sender:       sender.Hex(),
		SqrtPriceX96: sqrtPriceX96.String(),
		Tick:         tick,
	}), nil
}

func (h *CounterHook) BeforeAddLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (hooks.Result, error) {
	return h.bump(hooks.PointBeforeAddLiquidity, key, liquidityEvent(sender, params)), nil
}

func (h *CounterHook) AfterAddLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams, delta model.BalanceDelta) (hooks.Result, error) {
	ev := liquidityEvent(sender, params)
	ev.Amount0 = delta.Amount0.String()
	ev.Amount1 = delta.Amount1.String()
	return h.bump(hooks.PointAfterAddLiquidity, key, ev), nil
}

func (h *CounterHook) BeforeRemoveLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (hooks.Result, error) {
	return h.bump(hooks.PointBeforeRemoveLiquidity, key, liquidityEvent(sender, params)), nil
}

func (h *CounterHook) AfterRemoveLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams, delta model.BalanceDelta) (hooks.Result, error) {
	ev := liquidityEvent(sender, params)
	ev.Amount0 = delta.Amount0.String()
	ev.Amount1 = delta.Amount1.String()
	return h.bump(hooks.PointAfterRemoveLiquidity, key, ev), nil
}

func (h *CounterHook) BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (hooks.Result, error) {
	return h.bump(hooks.PointBeforeSwap, key, swapEvent(sender, params)), nil
}

func (h *CounterHook) AfterSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams, delta model.BalanceDelta) (hooks.Result, error) {
	ev := swapEvent(sender, params)
	ev.Amount0 = delta.Amount0.String()
	ev.Amount1 = delta.Amount1.String()
	return h.bump(hooks.PointAfterSwap, key, ev), nil
}

func (h *CounterHook) BeforeDonate(ctx context.Context, sender common.Address, key model.PoolKey, amount0, amount1 *big.Int) (hooks.Result, error) {
	return hooks.Result{}, fmt.Errorf("donate: %w", model.ErrUnsupported)
}

func (h *CounterHook) AfterDonate(ctx context.Context, sender common.Address, key model.PoolKey, amount0, amount1 *big.Int) (hooks.Result, error) {
	return hooks.Result{}, fmt.Errorf("donate: %w", model.ErrUnsupported)
}

func liquidityEvent(sender common.Address, params model.ModifyLiquidityParams) events.Event {
	return events.Event{
		Sender:         sender.Hex(),
		TickLower:      params.TickLower,
		TickUpper:      params.TickUpper,
		LiquidityDelta: params.LiquidityDelta.String(),
	}
}

func swapEvent(sender common.Address, params model.SwapParams) events.Event {
	return events.Event{
		Sender:          sender.Hex(),
		ZeroForOne:      params.ZeroForOne,
		AmountSpecified: params.AmountSpecified.String(),
	}
}
