package hooks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

// Point names one lifecycle point. The zero value is deliberately not
// a valid point: a handler that forgets to acknowledge returns a
// zero-value Result, and its Ack must never collide with a real point.
type Point uint8

const (
	PointBeforeInitialize Point = iota + 1
	PointAfterInitialize
	PointBeforeAddLiquidity
	PointAfterAddLiquidity
	PointBeforeRemoveLiquidity
	PointAfterRemoveLiquidity
	PointBeforeSwap
	PointAfterSwap
	PointBeforeDonate
	PointAfterDonate
)

var pointNames = [...]string{
	"before_initialize",
	"after_initialize",
	"before_add_liquidity",
	"after_add_liquidity",
	"before_remove_liquidity",
	"after_remove_liquidity",
	"before_swap",
	"after_swap",
	"before_donate",
	"after_donate",
}

func (p Point) String() string {
	if p >= 1 && int(p) <= len(pointNames) {
		return pointNames[p-1]
	}
	return "unknown"
}

// Flag maps a point to its capability bit. The zero point maps to no
// bit at all.
func (p Point) Flag() Flags {
	if p < 1 || int(p) > len(pointNames) {
		return 0
	}
	return 1 << (p - 1)
}

// Points lists every lifecycle point in dispatch order.
var Points = []Point{
	PointBeforeInitialize,
	PointAfterInitialize,
	PointBeforeAddLiquidity,
	PointAfterAddLiquidity,
	PointBeforeRemoveLiquidity,
	PointAfterRemoveLiquidity,
	PointBeforeSwap,
	PointAfterSwap,
	PointBeforeDonate,
	PointAfterDonate,
}

// Result is a handler's acknowledgment. Ack must name the point the
// handler was invoked for; anything else is a contract violation. For
// points whose delta-return bit is set, Delta is folded into the
// caller's ledger balance before the operation's raw delta is
// recorded. A nil-amount Delta means no override.
type Result struct {
	Ack   Point
	Delta model.BalanceDelta
}

// Acknowledge returns a neutral result for a point: correct ack,
// no override.
func Acknowledge(p Point) Result {
	return Result{Ack: p, Delta: model.ZeroBalanceDelta()}
}

// Hook is the contract a lifecycle hook implements. Handlers are only
// invoked for points whose capability bit is set in the hook address;
// the rest may fail or be left trivial.
type Hook interface {
	BeforeInitialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int) (Result, error)
	AfterInitialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int, tick int32) (Result, error)

	BeforeAddLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (Result, error)
	AfterAddLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams, delta model.BalanceDelta) (Result, error)

	BeforeRemoveLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (Result, error)
	AfterRemoveLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams, delta model.BalanceDelta) (Result, error)

	BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (Result, error)
	AfterSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams, delta model.BalanceDelta) (Result, error)

	BeforeDonate(ctx context.Context, sender common.Address, key model.PoolKey, amount0, amount1 *big.Int) (Result, error)
	AfterDonate(ctx context.Context, sender common.Address, key model.PoolKey, amount0, amount1 *big.Int) (Result, error)
}

// SessionParticipant is implemented by hooks whose side effects must
// join the session's all-or-nothing unit. The controller calls
// CommitSession once settlement has been verified and DiscardSession
// on any abort.
type SessionParticipant interface {
	CommitSession(ctx context.Context) error
	DiscardSession()
}
