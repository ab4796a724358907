package events

import (
	"sync"

	"creditledger/core/types"
)

// payloadEvent is implemented by typed events that can render themselves into
// the canonical attribute form.
type payloadEvent interface {
	Event() *types.Event
}

// Ring retains the most recent events in a fixed-size buffer so operators can
// inspect the audit trail over RPC without an external indexer.
type Ring struct {
	mu     sync.RWMutex
	buffer []*types.Event
	next   int
	filled bool
}

// NewRing creates a ring emitter retaining up to size events. A non-positive
// size falls back to a single slot.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	return &Ring{buffer: make([]*types.Event, size)}
}

// Emit implements the Emitter interface.
func (r *Ring) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payload, ok := evt.(payloadEvent)
	if !ok {
		return
	}
	rendered := payload.Event()
	if rendered == nil {
		return
	}
	r.mu.Lock()
	r.buffer[r.next] = rendered
	r.next = (r.next + 1) % len(r.buffer)
	if r.next == 0 {
		r.filled = true
	}
	r.mu.Unlock()
}

// Recent returns the retained events in emission order, oldest first.
func (r *Ring) Recent() []*types.Event {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*types.Event
	if r.filled {
		for i := 0; i < len(r.buffer); i++ {
			idx := (r.next + i) % len(r.buffer)
			if r.buffer[idx] != nil {
				out = append(out, r.buffer[idx])
			}
		}
		return out
	}
	for i := 0; i < r.next; i++ {
		if r.buffer[i] != nil {
			out = append(out, r.buffer[i])
		}
	}
	return out
}

// Fanout forwards each event to every configured sink in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, sink := range f {
		if sink != nil {
			sink.Emit(evt)
		}
	}
}
