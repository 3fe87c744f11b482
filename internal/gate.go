package internal

import "sync/atomic"

// RequestGate admits at most one logical request at a time. Triggers arriving
// while the permit is held are dropped by the caller, not queued, so stale
// requests never stack up behind a long generation.
type RequestGate struct {
	held atomic.Bool
}

func NewRequestGate() *RequestGate {
	return &RequestGate{}
}

// TryAcquire takes the permit without blocking. Returns false if a request
// is already in flight.
func (g *RequestGate) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release must be called on every exit path of request handling.
func (g *RequestGate) Release() {
	g.held.Store(false)
}

// Held reports whether a request is currently in flight.
func (g *RequestGate) Held() bool {
	return g.held.Load()
}
