// Package ledger tracks signed balance deltas per (actor, asset) for
// the duration of one settlement session. Positive means the engine
// owes the actor, negative means the actor owes the engine.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

type entryKey struct {
	actor common.Address
	asset model.Currency
}

// Ledger holds the live balances of one session. It is owned by the
// session controller: entries exist only between Open and Close, and
// every accessor fails outside that window.
type Ledger struct {
	open     bool
	balances map[entryKey]*big.Int
	touched  map[common.Address][]model.Currency
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[entryKey]*big.Int),
		touched:  make(map[common.Address][]model.Currency),
	}
}

// Open starts a session. Reentrant opening is forbidden.
func (l *Ledger) Open() error {
	if l.open {
		return model.ErrSessionOpen
	}
	l.open = true
	return nil
}

// Close ends the session and discards every entry, settled or not.
func (l *Ledger) Close() {
	l.open = false
	l.balances = make(map[entryKey]*big.Int)
	l.touched = make(map[common.Address][]model.Currency)
}

// IsOpen reports whether a session is in progress.
func (l *Ledger) IsOpen() bool {
	return l.open
}

// Credit increases what the engine owes the actor. The amount is a
// non-negative magnitude.
func (l *Ledger) Credit(actor common.Address, asset model.Currency, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("credit %s: %w", asset.Hex(), model.ErrNegativeAmount)
	}
	return l.apply(actor, asset, amount)
}

// Debit increases what the actor owes the engine.
func (l *Ledger) Debit(actor common.Address, asset model.Currency, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("debit %s: %w", asset.Hex(), model.ErrNegativeAmount)
	}
	return l.apply(actor, asset, new(big.Int).Neg(amount))
}

// Apply folds a signed delta into the actor's balance.
func (l *Ledger) Apply(actor common.Address, asset model.Currency, delta *big.Int) error {
	return l.apply(actor, asset, delta)
}

func (l *Ledger) apply(actor common.Address, asset model.Currency, delta *big.Int) error {
	if !l.open {
		return model.ErrNoSession
	}
	key := entryKey{actor: actor, asset: asset}
	current, ok := l.balances[key]
	if !ok {
		current = big.NewInt(0)
		l.balances[key] = current
		l.touched[actor] = append(l.touched[actor], asset)
	}
	current.Add(current, delta)
	return nil
}

// NetOf returns the current outstanding balance for (actor, asset).
func (l *Ledger) NetOf(actor common.Address, asset model.Currency) (*big.Int, error) {
	if !l.open {
		return nil, model.ErrNoSession
	}
	current, ok := l.balances[entryKey{actor: actor, asset: asset}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(current), nil
}

// Touched lists the assets an actor has balances for, in first-touch
// order.
func (l *Ledger) Touched(actor common.Address) ([]model.Currency, error) {
	if !l.open {
		return nil, model.ErrNoSession
	}
	assets := make([]model.Currency, len(l.touched[actor]))
	copy(assets, l.touched[actor])
	return assets, nil
}

// AssertSettled fails if any asset the actor touched nets non-zero.
// Called exactly once by the session controller at close time.
func (l *Ledger) AssertSettled(actor common.Address) error {
	if !l.open {
		return model.ErrNoSession
	}
	for _, asset := range l.touched[actor] {
		net := l.balances[entryKey{actor: actor, asset: asset}]
		if net.Sign() != 0 {
			return fmt.Errorf("%w: asset=%s net=%s", model.ErrUnsettled, asset.Hex(), net.String())
		}
	}
	return nil
}
