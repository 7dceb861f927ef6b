package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/hooks"
	"flashpool/internal/model"
)

type transferOp struct {
	from, to common.Address
	asset    model.Currency
	amount   *big.Int
}

// Session is the handle the callback receives from Unlock. Every
// operation routes its lifecycle points through the pool's hook,
// mutates pool state only in the session overlay, and records balance
// deltas in the ledger. A session is single-threaded and must not
// outlive the callback.
type Session struct {
	engine       *Engine
	sender       common.Address
	overlay      *overlay
	transfers    []transferOp
	executed     []transferOp
	participants []hooks.SessionParticipant
	closed       bool
}

// Sender returns the actor that opened the session.
func (s *Session) Sender() common.Address {
	return s.sender
}

func (s *Session) guard() error {
	if s.closed || !s.engine.ledger.IsOpen() {
		return model.ErrNoSession
	}
	return nil
}

// Initialize creates a pool at the given starting price and returns
// its tick.
func (s *Session) Initialize(ctx context.Context, key model.PoolKey, sqrtPriceX96 *big.Int) (int32, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if err := key.Validate(); err != nil {
		return 0, err
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, model.ErrInvalidSqrtPrice
	}

	id := key.ID()
	if p, ok := s.overlay.peek(id); ok && p.IsInitialized() {
		return 0, fmt.Errorf("pool %s: %w", id.Hex(), model.ErrPoolExists)
	}

	if _, err := s.dispatch(ctx, key, hooks.PointBeforeInitialize, func(h hooks.Hook) (hooks.Result, error) {
		return h.BeforeInitialize(ctx, s.sender, key, sqrtPriceX96)
	}); err != nil {
		return 0, err
	}

	tick, err := s.engine.exec.Initialize(key, sqrtPriceX96)
	if err != nil {
		return 0, fmt.Errorf("initialize: %w", err)
	}

	pool := s.overlay.pool(id)
	pool.SqrtPriceX96 = new(big.Int).Set(sqrtPriceX96)
	pool.Tick = tick
	pool.Liquidity = big.NewInt(0)

	if _, err := s.dispatch(ctx, key, hooks.PointAfterInitialize, func(h hooks.Hook) (hooks.Result, error) {
		return h.AfterInitialize(ctx, s.sender, key, sqrtPriceX96, tick)
	}); err != nil {
		return 0, err
	}

	return tick, nil
}

// ModifyLiquidity adds or removes liquidity and returns the caller
// delta (raw executor delta plus any hook fee adjustment) and the fees
// accrued to the position.
func (s *Session) ModifyLiquidity(ctx context.Context, key model.PoolKey, params model.ModifyLiquidityParams) (model.BalanceDelta, model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()
	if err := s.guard(); err != nil {
		return zero, zero, err
	}
	if err := params.Validate(); err != nil {
		return zero, zero, err
	}
	if params.LiquidityDelta == nil || params.LiquidityDelta.Sign() == 0 {
		return zero, zero, fmt.Errorf("liquidity delta: %w", model.ErrNegativeAmount)
	}

	id := key.ID()
	pool, ok := s.overlay.peek(id)
	if !ok || !pool.IsInitialized() {
		return zero, zero, fmt.Errorf("pool %s: %w", id.Hex(), model.ErrPoolNotFound)
	}

	isAdd := params.LiquidityDelta.Sign() > 0
	before, after := hooks.PointBeforeRemoveLiquidity, hooks.PointAfterRemoveLiquidity
	if isAdd {
		before, after = hooks.PointBeforeAddLiquidity, hooks.PointAfterAddLiquidity
	}

	if _, err := s.dispatch(ctx, key, before, func(h hooks.Hook) (hooks.Result, error) {
		if isAdd {
			return h.BeforeAddLiquidity(ctx, s.sender, key, params)
		}
		return h.BeforeRemoveLiquidity(ctx, s.sender, key, params)
	}); err != nil {
		return zero, zero, err
	}

	working := s.overlay.pool(id)
	delta, feeDelta, err := s.engine.exec.ModifyLiquidity(working, key, params)
	if err != nil {
		return zero, zero, fmt.Errorf("modify liquidity: %w", err)
	}

	override, err := s.dispatch(ctx, key, after, func(h hooks.Hook) (hooks.Result, error) {
		if isAdd {
			return h.AfterAddLiquidity(ctx, s.sender, key, params, delta)
		}
		return h.AfterRemoveLiquidity(ctx, s.sender, key, params, delta)
	})
	if err != nil {
		return zero, zero, err
	}

	recorded := delta.Add(override)
	if err := s.record(key, recorded); err != nil {
		return zero, zero, err
	}
	return recorded, feeDelta, nil
}

// Swap executes a swap and returns the recorded delta.
func (s *Session) Swap(ctx context.Context, key model.PoolKey, params model.SwapParams) (model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()
	if err := s.guard(); err != nil {
		return zero, err
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return zero, fmt.Errorf("amount specified: %w", model.ErrNegativeAmount)
	}

	id := key.ID()
	pool, ok := s.overlay.peek(id)
	if !ok || !pool.IsInitialized() {
		return zero, fmt.Errorf("pool %s: %w", id.Hex(), model.ErrPoolNotFound)
	}

	beforeOverride, err := s.dispatch(ctx, key, hooks.PointBeforeSwap, func(h hooks.Hook) (hooks.Result, error) {
		return h.BeforeSwap(ctx, s.sender, key, params)
	})
	if err != nil {
		return zero, err
	}

	working := s.overlay.pool(id)
	delta, err := s.engine.exec.Swap(working, key, params)
	if err != nil {
		return zero, fmt.Errorf("swap: %w", err)
	}

	afterOverride, err := s.dispatch(ctx, key, hooks.PointAfterSwap, func(h hooks.Hook) (hooks.Result, error) {
		return h.AfterSwap(ctx, s.sender, key, params, delta)
	})
	if err != nil {
		return zero, err
	}

	recorded := delta.Add(beforeOverride).Add(afterOverride)
	if err := s.record(key, recorded); err != nil {
		return zero, err
	}
	return recorded, nil
}

// Donate gives amounts of both currencies to the pool's liquidity
// providers. The donor owes both amounts at settlement.
func (s *Session) Donate(ctx context.Context, key model.PoolKey, amount0, amount1 *big.Int) (model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()
	if err := s.guard(); err != nil {
		return zero, err
	}
	if amount0 == nil || amount1 == nil || amount0.Sign() < 0 || amount1.Sign() < 0 {
		return zero, fmt.Errorf("donate: %w", model.ErrNegativeAmount)
	}

	id := key.ID()
	pool, ok := s.overlay.peek(id)
	if !ok || !pool.IsInitialized() {
		return zero, fmt.Errorf("pool %s: %w", id.Hex(), model.ErrPoolNotFound)
	}

	if _, err := s.dispatch(ctx, key, hooks.PointBeforeDonate, func(h hooks.Hook) (hooks.Result, error) {
		return h.BeforeDonate(ctx, s.sender, key, amount0, amount1)
	}); err != nil {
		return zero, err
	}

	delta := model.BalanceDelta{
		Amount0: new(big.Int).Neg(amount0),
		Amount1: new(big.Int).Neg(amount1),
	}

	if _, err := s.dispatch(ctx, key, hooks.PointAfterDonate, func(h hooks.Hook) (hooks.Result, error) {
		return h.AfterDonate(ctx, s.sender, key, amount0, amount1)
	}); err != nil {
		return zero, err
	}

	if err := s.record(key, delta); err != nil {
		return zero, err
	}
	return delta, nil
}

// Settle pays amount of asset into the engine, reducing what the
// sender owes. The actual transfer is deferred to commit.
func (s *Session) Settle(asset model.Currency, amount *big.Int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.engine.ledger.Credit(s.sender, asset, amount); err != nil {
		return err
	}
	s.transfers = append(s.transfers, transferOp{
		from:   s.sender,
		to:     ReserveAccount,
		asset:  asset,
		amount: new(big.Int).Set(amount),
	})
	return nil
}

// Take withdraws amount of asset owed to the sender, paying it to a
// recipient. The actual transfer is deferred to commit.
func (s *Session) Take(asset model.Currency, to common.Address, amount *big.Int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.engine.ledger.Debit(s.sender, asset, amount); err != nil {
		return err
	}
	s.transfers = append(s.transfers, transferOp{
		from:   ReserveAccount,
		to:     to,
		asset:  asset,
		amount: new(big.Int).Set(amount),
	})
	return nil
}

// NetOf exposes the sender's current outstanding balance for an asset.
func (s *Session) NetOf(asset model.Currency) (*big.Int, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.engine.ledger.NetOf(s.sender, asset)
}

// record applies a balance delta to the sender's ledger entries for
// the pool's two currencies.
func (s *Session) record(key model.PoolKey, delta model.BalanceDelta) error {
	if err := s.engine.ledger.Apply(s.sender, key.Currency0, delta.Amount0); err != nil {
		return err
	}
	return s.engine.ledger.Apply(s.sender, key.Currency1, delta.Amount1)
}
