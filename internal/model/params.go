package model

import "math/big"

// SwapParams describes one swap request. AmountSpecified positive
// means exact input, negative means exact output.
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ModifyLiquidityParams describes a liquidity change over a tick
// range. LiquidityDelta positive adds, negative removes.
type ModifyLiquidityParams struct {
	TickLower      int32
	TickUpper      int32
	LiquidityDelta *big.Int
	Salt           [32]byte
}

// Validate checks the tick range against the global bounds.
func (p ModifyLiquidityParams) Validate() error {
	if p.TickLower >= p.TickUpper {
		return ErrInvalidTickRange
	}
	if p.TickLower < MinTick || p.TickUpper > MaxTick {
		return ErrTickOutOfRange
	}
	return nil
}

// Pool is the engine-owned state for one pool.
type Pool struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
}

// NewPool returns an uninitialized pool.
func NewPool() *Pool {
	return &Pool{
		SqrtPriceX96: big.NewInt(0),
		Liquidity:    big.NewInt(0),
	}
}

func (p *Pool) IsInitialized() bool {
	return p.SqrtPriceX96 != nil && p.SqrtPriceX96.Sign() > 0
}

// Clone returns a deep copy, used by the session overlay so committed
// state is never aliased by in-flight mutations.
func (p *Pool) Clone() *Pool {
	return &Pool{
		SqrtPriceX96: new(big.Int).Set(p.SqrtPriceX96),
		Tick:         p.Tick,
		Liquidity:    new(big.Int).Set(p.Liquidity),
	}
}
