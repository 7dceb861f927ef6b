package engine

import (
	"context"
	"fmt"

	"flashpool/internal/hooks"
	"flashpool/internal/model"
)

// deltaFlag maps the points that may override balances to the
// capability bit that authorizes it.
func deltaFlag(p hooks.Point) (hooks.Flags, bool) {
	switch p {
	case hooks.PointBeforeSwap:
		return hooks.FlagBeforeSwapReturnsDelta, true
	case hooks.PointAfterSwap:
		return hooks.FlagAfterSwapReturnsDelta, true
	case hooks.PointAfterAddLiquidity:
		return hooks.FlagAfterAddLiquidityReturnsDelta, true
	case hooks.PointAfterRemoveLiquidity:
		return hooks.FlagAfterRemoveLiquidityReturnsDelta, true
	}
	return 0, false
}

// dispatch routes one lifecycle point to the pool's hook. If the
// capability bit for the point is unset the hook is never called. The
// returned delta is the hook's authorized override, zero otherwise.
func (s *Session) dispatch(ctx context.Context, key model.PoolKey, point hooks.Point, call func(hooks.Hook) (hooks.Result, error)) (model.BalanceDelta, error) {
	zero := model.ZeroBalanceDelta()

	reg, ok, err := s.engine.hookFor(key)
	if err != nil {
		return zero, err
	}
	if !ok || !reg.flags.Has(point.Flag()) {
		return zero, nil
	}

	s.addParticipant(reg.hook)

	res, err := call(reg.hook)
	if err != nil {
		return zero, fmt.Errorf("%s hook: %w: %w", point, model.ErrHookCallFailed, err)
	}
	if res.Ack != point {
		return zero, fmt.Errorf("%s hook acknowledged %s: %w", point, res.Ack, model.ErrHookAck)
	}

	override := res.Delta
	if override.Amount0 == nil || override.Amount1 == nil {
		return zero, nil
	}
	if override.IsZero() {
		return zero, nil
	}

	flag, overridable := deltaFlag(point)
	if !overridable || !reg.flags.Has(flag) {
		return zero, fmt.Errorf("%s hook returned unauthorized delta: %w", point, model.ErrHookCallFailed)
	}
	return model.NewBalanceDelta(override.Amount0, override.Amount1), nil
}

// addParticipant enrolls a hook in the session's commit/discard cycle
// once, in first-invocation order.
func (s *Session) addParticipant(h hooks.Hook) {
	sp, ok := h.(hooks.SessionParticipant)
	if !ok {
		return
	}
	for _, existing := range s.participants {
		if existing == sp {
			return
		}
	}
	s.participants = append(s.participants, sp)
}
