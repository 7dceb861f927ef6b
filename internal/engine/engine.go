// Package engine implements the settlement protocol: one atomic
// session per external entry, a hook dispatcher driven by the
// capability bits of each pool's hook address, and deferred transfers
// that settle only after the zero-sum check passes.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flashpool/internal/hooks"
	"flashpool/internal/ledger"
	"flashpool/internal/model"
)

// registration binds a pool to its hook and the capability set
// computed once when the pool was registered.
type registration struct {
	hook  hooks.Hook
	flags hooks.Flags
}

// Engine owns the pool state, the pool-to-hook registry, and the
// session machinery. All mutation happens inside Unlock.
type Engine struct {
	mu     sync.Mutex
	locked bool

	pools    map[model.PoolID]*model.Pool
	registry map[model.PoolID]registration

	ledger *ledger.Ledger
	exec   Executor
	assets AssetLedger
	logger *zap.Logger
}

// New builds an engine around an executor and an asset ledger.
func New(exec Executor, assets AssetLedger, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		pools:    make(map[model.PoolID]*model.Pool),
		registry: make(map[model.PoolID]registration),
		ledger:   ledger.New(),
		exec:     exec,
		assets:   assets,
		logger:   logger,
	}
}

// RegisterPool binds a hook to a pool key before any session touches
// it. The declared permissions must exactly match the bits embedded in
// the hook address; a mismatch is a configuration error. A zero hook
// address needs no registration at all.
func (e *Engine) RegisterPool(key model.PoolKey, h hooks.Hook, perms hooks.Permissions) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if key.Hooks == (common.Address{}) {
		if h != nil {
			return fmt.Errorf("pool %s: hook provided for zero hook address: %w", key.ID().Hex(), model.ErrCapabilityMismatch)
		}
		return nil
	}
	if h == nil {
		return fmt.Errorf("pool %s: %w", key.ID().Hex(), model.ErrHookNotRegistered)
	}
	if err := hooks.ValidateAddress(key.Hooks, perms); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return model.ErrSessionOpen
	}
	e.registry[key.ID()] = registration{hook: h, flags: perms.Flags()}

	e.logger.Info("pool registered",
		zap.String("pool_id", key.ID().Hex()),
		zap.String("hook", key.Hooks.Hex()),
		zap.Uint16("flags", uint16(perms.Flags())),
	)
	return nil
}

// hookFor resolves the hook registration for a key. A non-zero hook
// address without a registration is an error surfaced at dispatch.
func (e *Engine) hookFor(key model.PoolKey) (registration, bool, error) {
	if key.Hooks == (common.Address{}) {
		return registration{}, false, nil
	}
	reg, ok := e.registry[key.ID()]
	if !ok {
		return registration{}, false, fmt.Errorf("pool %s: %w", key.ID().Hex(), model.ErrHookNotRegistered)
	}
	return reg, true, nil
}

// Unlock is the single entry point into the settlement protocol. It
// opens the session, runs fn exactly once, and on return verifies that
// every asset the sender touched nets to zero. On success the session
// commits: deferred transfers execute, hook side effects and pool
// mutations publish. On any failure everything is discarded and the
// error propagates to the caller. Re-entering while a session is open
// fails without disturbing the outer session.
func (e *Engine) Unlock(ctx context.Context, sender common.Address, fn func(*Session) error) error {
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return model.ErrSessionOpen
	}
	e.locked = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.locked = false
		e.mu.Unlock()
	}()

	if err := e.ledger.Open(); err != nil {
		return err
	}

	s := &Session{
		engine:  e,
		sender:  sender,
		overlay: newOverlay(e.pools),
	}

	err := fn(s)
	if err == nil {
		err = e.ledger.AssertSettled(sender)
	}
	if err == nil {
		err = s.executeTransfers(ctx)
	}
	if err == nil {
		err = s.commitParticipants(ctx)
	}

	s.closed = true
	if err != nil {
		s.reverseTransfers(ctx)
		s.discardParticipants()
		e.ledger.Close()
		e.logger.Info("session aborted", zap.String("sender", sender.Hex()), zap.Error(err))
		return err
	}

	s.overlay.commit()
	e.ledger.Close()
	e.logger.Info("session committed", zap.String("sender", sender.Hex()))
	return nil
}

// executeTransfers runs the deferred asset movements queued by Settle
// and Take, in call order, tracking what has run so an abort can
// reverse it.
func (s *Session) executeTransfers(ctx context.Context) error {
	if len(s.transfers) == 0 {
		return nil
	}
	if s.engine.assets == nil {
		return fmt.Errorf("no asset ledger configured")
	}
	for _, t := range s.transfers {
		if err := s.engine.assets.Transfer(ctx, t.from, t.to, t.asset, t.amount); err != nil {
			return fmt.Errorf("transfer %s: %w", t.asset.Hex(), err)
		}
		s.executed = append(s.executed, t)
	}
	return nil
}

// reverseTransfers undoes every executed transfer in reverse order.
// Called on abort so a failed session leaves no settled value behind.
func (s *Session) reverseTransfers(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		t := s.executed[i]
		if err := s.engine.assets.Transfer(ctx, t.to, t.from, t.asset, t.amount); err != nil {
			s.engine.logger.Error("reverse transfer failed",
				zap.String("asset", t.asset.Hex()),
				zap.Error(err),
			)
		}
	}
	s.executed = nil
}

// commitParticipants lets every hook invoked this session publish its
// buffered side effects. A failure here aborts the whole session.
func (s *Session) commitParticipants(ctx context.Context) error {
	for _, p := range s.participants {
		if err := p.CommitSession(ctx); err != nil {
			return fmt.Errorf("hook commit: %w", err)
		}
	}
	return nil
}

func (s *Session) discardParticipants() {
	for _, p := range s.participants {
		p.DiscardSession()
	}
}
