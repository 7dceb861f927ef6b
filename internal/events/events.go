// Package events buffers observability records during a session and
// delivers them only when the session commits.
package events

import (
	"go.uber.org/zap"
)

// Event is one lifecycle observation: who acted, on which pool, with
// which salient parameters. String fields carry big integers so the
// JSON form is stable regardless of magnitude.
type Event struct {
	Point           string `json:"point"`
	Sender          string `json:"sender"`
	PoolID          string `json:"pool_id"`
	SqrtPriceX96    string `json:"sqrt_price_x96,omitempty"`
	Tick            int32  `json:"tick,omitempty"`
	TickLower       int32  `json:"tick_lower,omitempty"`
	TickUpper       int32  `json:"tick_upper,omitempty"`
	LiquidityDelta  string `json:"liquidity_delta,omitempty"`
	ZeroForOne      bool   `json:"zero_for_one,omitempty"`
	AmountSpecified string `json:"amount_specified,omitempty"`
	Amount0         string `json:"amount0,omitempty"`
	Amount1         string `json:"amount1,omitempty"`
}

// Sink receives committed events. Delivery is fire-and-forget.
type Sink func(Event)

// Emitter accumulates events for the open session. Flush delivers and
// clears; Discard just clears. An event is observable if and only if
// its session committed.
type Emitter struct {
	logger  *zap.Logger
	sink    Sink
	pending []Event
}

func NewEmitter(logger *zap.Logger, sink Sink) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{logger: logger, sink: sink}
}

// Emit buffers an event until the session resolves.
func (e *Emitter) Emit(ev Event) {
	e.pending = append(e.pending, ev)
}

// Pending returns the number of buffered events.
func (e *Emitter) Pending() int {
	return len(e.pending)
}

// Flush delivers every buffered event and clears the buffer.
func (e *Emitter) Flush() {
	for _, ev := range e.pending {
		e.logger.Info("lifecycle event",
			zap.String("point", ev.Point),
			zap.String("sender", ev.Sender),
			zap.String("pool_id", ev.PoolID),
		)
		if e.sink != nil {
			e.sink(ev)
		}
	}
	e.pending = nil
}

// Discard drops every buffered event without delivery.
func (e *Emitter) Discard() {
	e.pending = nil
}
