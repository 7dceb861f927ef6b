package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

// Executor performs the pricing math for pool operations. The engine
// treats it as opaque: it hands over the session's working copy of the
// pool state and records whatever deltas come back. Deltas follow the
// ledger convention (positive = engine owes the actor).
type Executor interface {
	// Initialize computes the starting tick for a price.
	Initialize(key model.PoolKey, sqrtPriceX96 *big.Int) (int32, error)

	// ModifyLiquidity applies a liquidity change to pool and returns
	// the caller delta and any fees accrued to the position.
	ModifyLiquidity(pool *model.Pool, key model.PoolKey, params model.ModifyLiquidityParams) (model.BalanceDelta, model.BalanceDelta, error)

	// Swap applies a swap to pool and returns the caller delta.
	Swap(pool *model.Pool, key model.PoolKey, params model.SwapParams) (model.BalanceDelta, error)
}

// AssetLedger moves actual value. The engine only calls it during
// commit, once the session's books are known to balance.
type AssetLedger interface {
	Transfer(ctx context.Context, from, to common.Address, asset model.Currency, amount *big.Int) error
}

// ReserveAccount is the engine's own account on the asset ledger.
// Settle pays into it, Take pays out of it.
var ReserveAccount = common.HexToAddress("0x00000000000000000000000000000000f1a5a9a1")
