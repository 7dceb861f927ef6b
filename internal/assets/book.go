// Package assets is an in-memory asset ledger: a balance book the
// engine calls at commit time to move settled value. Real deployments
// substitute their own transfer mechanics behind the same interface.
package assets

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

type holding struct {
	holder common.Address
	asset  model.Currency
}

// Book tracks balances per (holder, asset).
type Book struct {
	mu       sync.Mutex
	balances map[holding]*big.Int
}

func NewBook() *Book {
	return &Book{balances: make(map[holding]*big.Int)}
}

// Mint credits a holder out of thin air. Test and bootstrap use only.
func (b *Book) Mint(holder common.Address, asset model.Currency, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(holder, asset, amount)
}

// BalanceOf returns the holder's current balance for an asset.
func (b *Book) BalanceOf(holder common.Address, asset model.Currency) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.balances[holding{holder: holder, asset: asset}]; ok {
		return new(big.Int).Set(current)
	}
	return big.NewInt(0)
}

// Transfer moves amount of asset from one holder to another. Fails if
// the sender's balance does not cover it.
func (b *Book) Transfer(ctx context.Context, from, to common.Address, asset model.Currency, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("transfer %s: %w", asset.Hex(), model.ErrNegativeAmount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.balances[holding{holder: from, asset: asset}]
	if !ok || current.Cmp(amount) < 0 {
		return fmt.Errorf("holder %s asset %s: insufficient balance", from.Hex(), asset.Hex())
	}
	current.Sub(current, amount)
	b.add(to, asset, amount)
	return nil
}

func (b *Book) add(holder common.Address, asset model.Currency, amount *big.Int) {
	key := holding{holder: holder, asset: asset}
	current, ok := b.balances[key]
	if !ok {
		current = big.NewInt(0)
		b.balances[key] = current
	}
	current.Add(current, amount)
}
