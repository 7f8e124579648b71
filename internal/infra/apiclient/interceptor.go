package apiclient

import (
	"net/http"
	"slices"
	"sync"
)

// RequestInterceptor mutates an outgoing request. A returned error aborts it.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes settled requests. Either hook may be nil.
type ResponseInterceptor struct {
	// Fulfilled sees every 2xx response.
	Fulfilled func(resp *http.Response) (*http.Response, error)
	// Rejected sees transport failures and *ResponseError values; its result
	// replaces the error.
	Rejected func(req *http.Request, err error) error
}

// Manager is an ordered interceptor registry.
type Manager[T any] struct {
	mu      sync.RWMutex
	entries []managerEntry[T]
	nextID  int
}

type managerEntry[T any] struct {
	id      int
	handler T
}

// Use registers handler and returns its ID for Eject and Replace.
func (m *Manager[T]) Use(handler T) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.useLocked(handler)
}

func (m *Manager[T]) useLocked(handler T) int {
	m.nextID++
	m.entries = append(m.entries, managerEntry[T]{id: m.nextID, handler: handler})

	return m.nextID
}

// Eject removes the handler with the given ID; unknown IDs are ignored.
func (m *Manager[T]) Eject(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ejectLocked(id)
}

func (m *Manager[T]) ejectLocked(id int) {
	m.entries = slices.DeleteFunc(m.entries, func(e managerEntry[T]) bool {
		return e.id == id
	})
}

// Replace ejects oldID and registers handler in one step, so no snapshot sees
// both or neither.
func (m *Manager[T]) Replace(oldID int, handler T) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ejectLocked(oldID)

	return m.useLocked(handler)
}

// Snapshot returns the handlers in registration order.
func (m *Manager[T]) Snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handlers := make([]T, len(m.entries))
	for i, e := range m.entries {
		handlers[i] = e.handler
	}

	return handlers
}

// Len returns the number of registered handlers.
func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
