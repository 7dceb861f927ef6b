// Package hooks defines the lifecycle-hook contract: the capability
// flags embedded in a hook address, the handler interface, and the
// acknowledgment every handler must return.
package hooks

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

// Flags is the capability bitmask a hook address carries in its
// low-order bits. One bit per lifecycle point, plus four bits that
// gate whether the dispatcher honors override deltas.
type Flags uint16

const (
	FlagBeforeInitialize Flags = 1 << iota
	FlagAfterInitialize
	FlagBeforeAddLiquidity
	FlagAfterAddLiquidity
	FlagBeforeRemoveLiquidity
	FlagAfterRemoveLiquidity
	FlagBeforeSwap
	FlagAfterSwap
	FlagBeforeDonate
	FlagAfterDonate
	FlagBeforeSwapReturnsDelta
	FlagAfterSwapReturnsDelta
	FlagAfterAddLiquidityReturnsDelta
	FlagAfterRemoveLiquidityReturnsDelta
)

// FlagMask covers the 14 bits an address may encode.
const FlagMask Flags = 1<<14 - 1

// Has reports whether all bits in flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Permissions is the declared capability set for a hook, registered
// alongside the pool and validated against the hook address.
type Permissions struct {
	BeforeInitialize                 bool
	AfterInitialize                  bool
	BeforeAddLiquidity               bool
	AfterAddLiquidity                bool
	BeforeRemoveLiquidity            bool
	AfterRemoveLiquidity             bool
	BeforeSwap                       bool
	AfterSwap                        bool
	BeforeDonate                     bool
	AfterDonate                      bool
	BeforeSwapReturnsDelta           bool
	AfterSwapReturnsDelta            bool
	AfterAddLiquidityReturnsDelta    bool
	AfterRemoveLiquidityReturnsDelta bool
}

// Flags encodes the permission set as a bitmask.
func (p Permissions) Flags() Flags {
	var f Flags
	set := func(on bool, flag Flags) {
		if on {
			f |= flag
		}
	}
	set(p.BeforeInitialize, FlagBeforeInitialize)
	set(p.AfterInitialize, FlagAfterInitialize)
	set(p.BeforeAddLiquidity, FlagBeforeAddLiquidity)
	set(p.AfterAddLiquidity, FlagAfterAddLiquidity)
	set(p.BeforeRemoveLiquidity, FlagBeforeRemoveLiquidity)
	set(p.AfterRemoveLiquidity, FlagAfterRemoveLiquidity)
	set(p.BeforeSwap, FlagBeforeSwap)
	set(p.AfterSwap, FlagAfterSwap)
	set(p.BeforeDonate, FlagBeforeDonate)
	set(p.AfterDonate, FlagAfterDonate)
	set(p.BeforeSwapReturnsDelta, FlagBeforeSwapReturnsDelta)
	set(p.AfterSwapReturnsDelta, FlagAfterSwapReturnsDelta)
	set(p.AfterAddLiquidityReturnsDelta, FlagAfterAddLiquidityReturnsDelta)
	set(p.AfterRemoveLiquidityReturnsDelta, FlagAfterRemoveLiquidityReturnsDelta)
	return f
}

// PermissionsFromFlags decodes a bitmask into a permission set.
func PermissionsFromFlags(f Flags) Permissions {
	return Permissions{
		BeforeInitialize:                 f.Has(FlagBeforeInitialize),
		AfterInitialize:                  f.Has(FlagAfterInitialize),
		BeforeAddLiquidity:               f.Has(FlagBeforeAddLiquidity),
		AfterAddLiquidity:                f.Has(FlagAfterAddLiquidity),
		BeforeRemoveLiquidity:            f.Has(FlagBeforeRemoveLiquidity),
		AfterRemoveLiquidity:             f.Has(FlagAfterRemoveLiquidity),
		BeforeSwap:                       f.Has(FlagBeforeSwap),
		AfterSwap:                        f.Has(FlagAfterSwap),
		BeforeDonate:                     f.Has(FlagBeforeDonate),
		AfterDonate:                      f.Has(FlagAfterDonate),
		BeforeSwapReturnsDelta:           f.Has(FlagBeforeSwapReturnsDelta),
		AfterSwapReturnsDelta:            f.Has(FlagAfterSwapReturnsDelta),
		AfterAddLiquidityReturnsDelta:    f.Has(FlagAfterAddLiquidityReturnsDelta),
		AfterRemoveLiquidityReturnsDelta: f.Has(FlagAfterRemoveLiquidityReturnsDelta),
	}
}

// AddressFlags extracts the capability bits from the low 14 bits of a
// hook address. The dispatcher reads these without calling the hook,
// so unregistered points cost nothing.
func AddressFlags(addr common.Address) Flags {
	return Flags(binary.BigEndian.Uint16(addr[18:20])) & FlagMask
}

// MakeAddress places the given flags into the low 14 bits of base.
// Callers choose an address whose embedded bits already encode the
// capability set; this helper does the placement explicitly.
func MakeAddress(base common.Address, flags Flags) common.Address {
	addr := base
	low := binary.BigEndian.Uint16(addr[18:20])
	low = low&^uint16(FlagMask) | uint16(flags&FlagMask)
	binary.BigEndian.PutUint16(addr[18:20], low)
	return addr
}

// ValidateAddress checks that the bits embedded in addr exactly equal
// the declared permission set. A mismatch is a configuration error
// raised at registration time, never during a session.
func ValidateAddress(addr common.Address, perms Permissions) error {
	if AddressFlags(addr) != perms.Flags() {
		return fmt.Errorf("hook %s: %w", addr.Hex(), model.ErrCapabilityMismatch)
	}
	return nil
}
