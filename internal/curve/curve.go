// Package curve is a deliberately naive operation executor. It keeps
// the engine's executor contract honest without modeling concentrated
// liquidity exactly: output follows a constant-product approximation
// and price impact is not tracked.
package curve

import (
	"math"
	"math/big"

	"flashpool/internal/model"
)

// Q96 is the fixed-point scale for sqrt prices.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

const feeDenominator = 1_000_000

// Executor implements engine.Executor.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

// Initialize converts a starting sqrt price to its tick:
// tick = floor(log_1.0001(price)) with price = (sqrtPriceX96/2^96)^2.
func (e *Executor) Initialize(key model.PoolKey, sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, model.ErrInvalidSqrtPrice
	}

	ratio := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX96),
		new(big.Float).SetInt(Q96),
	)
	sqrtPrice, _ := ratio.Float64()
	if sqrtPrice <= 0 || math.IsInf(sqrtPrice, 0) {
		return 0, model.ErrInvalidSqrtPrice
	}

	price := sqrtPrice * sqrtPrice
	tick := int32(math.Floor(math.Log(price) / math.Log(1.0001)))
	if tick < model.MinTick {
		tick = model.MinTick
	}
	if tick > model.MaxTick {
		tick = model.MaxTick
	}
	return tick, nil
}

// ModifyLiquidity converts a liquidity change into token amounts. In
// range both tokens contribute half each; outside the range only the
// side the current price sits below or above. Deltas follow the
// ledger convention: adding liquidity means the actor owes tokens
// (negative), removing means the engine owes them back (positive).
func (e *Executor) ModifyLiquidity(pool *model.Pool, key model.PoolKey, params model.ModifyLiquidityParams) (model.BalanceDelta, model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()
	if err := params.Validate(); err != nil {
		return zero, zero, err
	}
	if params.LiquidityDelta == nil || params.LiquidityDelta.Sign() == 0 {
		return zero, zero, model.ErrNegativeAmount
	}

	inRange := params.TickLower <= pool.Tick && pool.Tick < params.TickUpper

	owed := new(big.Int).Neg(params.LiquidityDelta)
	var amount0, amount1 *big.Int
	switch {
	case inRange:
		amount0 = new(big.Int).Div(owed, big.NewInt(2))
		amount1 = new(big.Int).Sub(owed, amount0)
	case pool.Tick < params.TickLower:
		amount0 = new(big.Int).Set(owed)
		amount1 = big.NewInt(0)
	default:
		amount0 = big.NewInt(0)
		amount1 = new(big.Int).Set(owed)
	}

	if inRange {
		next := new(big.Int).Add(pool.Liquidity, params.LiquidityDelta)
		if next.Sign() < 0 {
			return zero, zero, model.ErrInsufficientLiquidity
		}
		pool.Liquidity = next
	}

	return model.NewBalanceDelta(amount0, amount1), model.ZeroBalanceDelta(), nil
}

// Swap prices a swap against the pool's active liquidity with the
// constant-product approximation out = in*L/(L+in), fee taken from
// the input side.
func (e *Executor) Swap(pool *model.Pool, key model.PoolKey, params model.SwapParams) (model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return zero, model.ErrNegativeAmount
	}
	if pool.Liquidity == nil || pool.Liquidity.Sign() <= 0 {
		return zero, model.ErrInsufficientLiquidity
	}

	exactInput := params.AmountSpecified.Sign() > 0

	var in, out *big.Int
	if exactInput {
		in = new(big.Int).Set(params.AmountSpecified)
		effective := applyFee(in, key.Fee)
		out = swapOutput(pool.Liquidity, effective)
	} else {
		out = new(big.Int).Neg(params.AmountSpecified)
		if out.Cmp(pool.Liquidity) >= 0 {
			return zero, model.ErrInsufficientLiquidity
		}
		in = swapInput(pool.Liquidity, out)
		in = grossUpFee(in, key.Fee)
	}

	// Input is owed by the actor, output is owed to them.
	if params.ZeroForOne {
		return model.NewBalanceDelta(new(big.Int).Neg(in), out), nil
	}
	return model.NewBalanceDelta(out, new(big.Int).Neg(in)), nil
}

// swapOutput computes in*L/(L+in).
func swapOutput(liquidity, in *big.Int) *big.Int {
	numerator := new(big.Int).Mul(in, liquidity)
	denominator := new(big.Int).Add(liquidity, in)
	return numerator.Div(numerator, denominator)
}

// swapInput computes out*L/(L-out), the inverse of swapOutput.
func swapInput(liquidity, out *big.Int) *big.Int {
	numerator := new(big.Int).Mul(out, liquidity)
	denominator := new(big.Int).Sub(liquidity, out)
	return numerator.Div(numerator, denominator)
}

func applyFee(amount *big.Int, fee uint32) *big.Int {
	kept := new(big.Int).Mul(amount, big.NewInt(int64(feeDenominator-fee)))
	return kept.Div(kept, big.NewInt(feeDenominator))
}

func grossUpFee(amount *big.Int, fee uint32) *big.Int {
	gross := new(big.Int).Mul(amount, big.NewInt(feeDenominator))
	return gross.Div(gross, big.NewInt(int64(feeDenominator-fee)))
}
