package engine

import "flashpool/internal/model"

// overlay is the session's copy-on-write view of pool state. Reads
// fall through to the committed map; the first write clones the pool
// so nothing committed is aliased. Commit publishes the dirty set,
// discard is just dropping the overlay.
type overlay struct {
	base  map[model.PoolID]*model.Pool
	dirty map[model.PoolID]*model.Pool
}

func newOverlay(base map[model.PoolID]*model.Pool) *overlay {
	return &overlay{
		base:  base,
		dirty: make(map[model.PoolID]*model.Pool),
	}
}

// pool returns the session's working copy for id, creating an
// uninitialized pool if none exists yet.
func (o *overlay) pool(id model.PoolID) *model.Pool {
	if p, ok := o.dirty[id]; ok {
		return p
	}
	var p *model.Pool
	if committed, ok := o.base[id]; ok {
		p = committed.Clone()
	} else {
		p = model.NewPool()
	}
	o.dirty[id] = p
	return p
}

// peek returns committed-or-dirty state without marking it dirty.
func (o *overlay) peek(id model.PoolID) (*model.Pool, bool) {
	if p, ok := o.dirty[id]; ok {
		return p, true
	}
	p, ok := o.base[id]
	return p, ok
}

// commit publishes every dirty pool into the committed map.
func (o *overlay) commit() {
	for id, p := range o.dirty {
		o.base[id] = p
	}
	o.dirty = make(map[model.PoolID]*model.Pool)
}
