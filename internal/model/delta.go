package model

import "math/big"

// BalanceDelta is the net change for the two pool currencies produced
// by one operation. Sign convention follows the ledger: positive means
// the engine owes the actor, negative means the actor owes the engine.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

func NewBalanceDelta(amount0, amount1 *big.Int) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
}

func (bd BalanceDelta) Add(other BalanceDelta) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Add(bd.Amount0, other.Amount0),
		Amount1: new(big.Int).Add(bd.Amount1, other.Amount1),
	}
}

func (bd BalanceDelta) Negate() BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Neg(bd.Amount0),
		Amount1: new(big.Int).Neg(bd.Amount1),
	}
}

func (bd BalanceDelta) IsZero() bool {
	return bd.Amount0.Sign() == 0 && bd.Amount1.Sign() == 0
}
