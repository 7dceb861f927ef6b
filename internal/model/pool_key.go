package model

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fee tiers in hundredths of a basis point, and their conventional
// tick spacings.
const (
	Fee001 uint32 = 100
	Fee005 uint32 = 500
	Fee030 uint32 = 3000
	Fee100 uint32 = 10000
	FeeMax uint32 = 100000

	TickSpacing001 int32 = 1
	TickSpacing005 int32 = 10
	TickSpacing030 int32 = 60
	TickSpacing100 int32 = 200
)

// Tick bounds shared with the executor.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// PoolKey is the full tuple identifying a pool: the sorted currency
// pair, fee, tick spacing, and the hook address (zero = no hook).
type PoolKey struct {
	Currency0   Currency
	Currency1   Currency
	Fee         uint32
	TickSpacing int32
	Hooks       common.Address
}

// PoolID is the canonical derived key for all per-pool state.
type PoolID [32]byte

func (id PoolID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ID derives the pool identity from the key tuple. Identical tuples
// always hash to the same identity; distinct tuples never collide
// short of a Keccak256 collision.
func (pk PoolKey) ID() PoolID {
	buf := make([]byte, 0, 20+20+4+4+20)
	buf = append(buf, pk.Currency0.Address.Bytes()...)
	buf = append(buf, pk.Currency1.Address.Bytes()...)

	var fee [4]byte
	binary.BigEndian.PutUint32(fee[:], pk.Fee)
	buf = append(buf, fee[:]...)

	var spacing [4]byte
	binary.BigEndian.PutUint32(spacing[:], uint32(pk.TickSpacing))
	buf = append(buf, spacing[:]...)

	buf = append(buf, pk.Hooks.Bytes()...)

	var id PoolID
	copy(id[:], crypto.Keccak256(buf))
	return id
}

// Validate checks the static pool parameters.
func (pk PoolKey) Validate() error {
	if !pk.Currency0.Less(pk.Currency1) {
		return ErrCurrencyNotSorted
	}
	if pk.Fee > FeeMax {
		return ErrInvalidFee
	}
	if pk.TickSpacing <= 0 {
		return ErrInvalidTickSpacing
	}
	return nil
}
