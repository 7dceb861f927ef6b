package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Currency identifies a fungible asset. The zero value is the native
// currency; anything else carries a token address.
type Currency struct {
	Address common.Address
}

// NativeCurrency is the chain-native asset (address zero).
var NativeCurrency = Currency{}

func (c Currency) IsNative() bool {
	return c.Address == (common.Address{})
}

func (c Currency) Hex() string {
	return c.Address.Hex()
}

// Less reports whether c sorts before other. Pool keys require
// Currency0 < Currency1 so every unordered pair maps to one key.
func (c Currency) Less(other Currency) bool {
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0
}

// SortCurrencies returns the pair in canonical order.
func SortCurrencies(a, b Currency) (Currency, Currency) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}
