// Package hub fans identity changes out to provider observers.
package hub

import (
	"sync"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
)

// Hub holds the current identity of a provider and its observers.
// Deliveries are serialized, so observers see changes in publish order.
// Observers must not call back into the owning provider synchronously.
type Hub struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	current   *entity.Identity
	observers map[uint64]service.IdentityObserver
	nextID    uint64
}

// New creates an empty hub in the signed-out state.
func New() *Hub {
	return &Hub{observers: make(map[uint64]service.IdentityObserver)}
}

// Subscribe registers the observer and reports the current state to it.
func (h *Hub) Subscribe(observer service.IdentityObserver) func() {
	h.deliverMu.Lock()
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.observers[id] = observer
	current := h.current.Clone()
	h.mu.Unlock()

	observer(current)
	h.deliverMu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.observers, id)
			h.mu.Unlock()
		})
	}
}

// Publish replaces the current identity and notifies every observer.
func (h *Hub) Publish(identity *entity.Identity) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	h.current = identity.Clone()
	observers := make([]service.IdentityObserver, 0, len(h.observers))
	for _, observer := range h.observers {
		observers = append(observers, observer)
	}
	h.mu.Unlock()

	for _, observer := range observers {
		observer(identity.Clone())
	}
}

// Current returns a copy of the current identity, nil when signed out.
func (h *Hub) Current() *entity.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.Clone()
}
