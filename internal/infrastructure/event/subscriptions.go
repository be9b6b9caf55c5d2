package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/foodontracks/backend/internal/domain/shared"
)

// routing is an immutable snapshot of who receives which event type
type routing struct {
	byType map[string][]shared.EventHandler
	all    []shared.EventHandler
}

// subscriptions is a copy-on-write routing table. Publishers read the
// current snapshot without locking; changes rebuild it under mu.
type subscriptions struct {
	mu   sync.Mutex
	snap atomic.Pointer[routing]
}

func newSubscriptions() *subscriptions {
	s := &subscriptions{}
	s.snap.Store(&routing{byType: map[string][]shared.EventHandler{}})
	return s
}

// add routes eventTypes to h; no types routes every event
func (s *subscriptions) add(h shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Load().clone()
	if len(eventTypes) == 0 {
		next.all = append(next.all, h)
	}
	for _, t := range eventTypes {
		next.byType[t] = append(next.byType[t], h)
	}
	s.snap.Store(next)
}

func (s *subscriptions) remove(h shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Load().clone()
	next.all = without(next.all, h)
	for t, hs := range next.byType {
		if hs = without(hs, h); len(hs) == 0 {
			delete(next.byType, t)
		} else {
			next.byType[t] = hs
		}
	}
	s.snap.Store(next)
}

// handlersFor lists type-specific handlers first, then catch-all ones.
// The result must not be modified.
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	r := s.snap.Load()
	typed := r.byType[eventType]
	if len(r.all) == 0 {
		return typed
	}
	return slices.Concat(typed, r.all)
}

func (r *routing) clone() *routing {
	c := &routing{
		byType: make(map[string][]shared.EventHandler, len(r.byType)),
		all:    slices.Clone(r.all),
	}
	for t, hs := range r.byType {
		c.byType[t] = slices.Clone(hs)
	}
	return c
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(hs, func(h shared.EventHandler) bool { return h == target })
}
