package model

import "errors"

// Protocol state errors: session lifecycle misuse.
var (
	ErrSessionOpen = errors.New("session already open")
	ErrNoSession   = errors.New("no open session")
)

// Settlement and hook contract errors.
var (
	ErrUnsettled          = errors.New("non-zero balance delta at session close")
	ErrHookAck            = errors.New("hook acknowledged wrong lifecycle point")
	ErrHookCallFailed     = errors.New("hook call failed")
	ErrUnsupported        = errors.New("unsupported operation")
	ErrCapabilityMismatch = errors.New("hook address does not encode declared capabilities")
	ErrHookNotRegistered  = errors.New("hook not registered")
)

// Pool and parameter guards.
var (
	ErrCurrencyNotSorted     = errors.New("currencies not sorted")
	ErrInvalidFee            = errors.New("invalid fee")
	ErrInvalidTickSpacing    = errors.New("invalid tick spacing")
	ErrInvalidTickRange      = errors.New("invalid tick range")
	ErrTickOutOfRange        = errors.New("tick out of range")
	ErrInvalidSqrtPrice      = errors.New("invalid sqrt price")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrPoolExists            = errors.New("pool already initialized")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrNegativeAmount        = errors.New("amount must be non-negative")
)
