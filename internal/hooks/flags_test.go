package hooks

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"flashpool/internal/model"
)

func TestPermissionsFlagsRoundTrip(t *testing.T) {
	perms := Permissions{
		BeforeSwap:             true,
		AfterSwap:              true,
		BeforeSwapReturnsDelta: true,
		AfterInitialize:        true,
	}

	flags := perms.Flags()
	if !flags.Has(FlagBeforeSwap) || !flags.Has(FlagAfterSwap) {
		t.Fatalf("swap flags missing: %016b", flags)
	}
	if flags.Has(FlagBeforeInitialize) {
		t.Fatalf("unexpected before-initialize flag: %016b", flags)
	}

	decoded := PermissionsFromFlags(flags)
	if decoded != perms {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, perms)
	}
}

func TestPointFlagAlignment(t *testing.T) {
	// Each lifecycle point must map to its own bit inside the mask.
	seen := Flags(0)
	for _, p := range Points {
		flag := p.Flag()
		if flag&FlagMask == 0 {
			t.Fatalf("point %s flag outside mask", p)
		}
		if seen&flag != 0 {
			t.Fatalf("point %s reuses flag %016b", p, flag)
		}
		seen |= flag
	}
}

func TestZeroPointIsNotALifecyclePoint(t *testing.T) {
	// A zero-value Result carries a zero Ack; it must never equal a
	// real point or map to a capability bit.
	var zero Point
	if zero.Flag() != 0 {
		t.Fatalf("zero point has a flag: %016b", zero.Flag())
	}
	if zero.String() != "unknown" {
		t.Fatalf("zero point named %q", zero.String())
	}
	for _, p := range Points {
		if p == zero {
			t.Fatalf("lifecycle point %s collides with the zero value", p)
		}
	}
}

func TestMakeAddressEmbedsFlags(t *testing.T) {
	base := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	flags := FlagBeforeSwap | FlagAfterSwap | FlagAfterSwapReturnsDelta

	addr := MakeAddress(base, flags)
	if got := AddressFlags(addr); got != flags {
		t.Fatalf("embedded flags mismatch: %016b != %016b", got, flags)
	}

	// Bits above the mask survive placement.
	if addr[0] != base[0] || addr[10] != base[10] {
		t.Fatalf("high address bytes changed: %s -> %s", base.Hex(), addr.Hex())
	}
}

func TestValidateAddress(t *testing.T) {
	perms := Permissions{BeforeSwap: true, AfterSwap: true}
	addr := MakeAddress(common.HexToAddress("0x1234"), perms.Flags())

	if err := ValidateAddress(addr, perms); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Declaring more than the address encodes is a configuration error.
	perms.BeforeAddLiquidity = true
	err := ValidateAddress(addr, perms)
	if !errors.Is(err, model.ErrCapabilityMismatch) {
		t.Fatalf("expected capability mismatch, got %v", err)
	}

	// So is declaring less.
	err = ValidateAddress(addr, Permissions{BeforeSwap: true})
	if !errors.Is(err, model.ErrCapabilityMismatch) {
		t.Fatalf("expected capability mismatch, got %v", err)
	}
}
