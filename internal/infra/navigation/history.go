// Package navigation keeps the in-process navigation history that the HTTP
// layer mirrors with redirects.
package navigation

import (
	"maps"
	"sync"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
)

// History is a stack of visited locations.
type History struct {
	mu        sync.Mutex
	entries   []entity.Location
	listeners map[uint64]func(entity.Location)
	nextID    uint64
}

// NewHistory creates a history whose first entry is start.
func NewHistory(start string) *History {
	return &History{
		entries:   []entity.Location{{Path: start}},
		listeners: make(map[uint64]func(entity.Location)),
	}
}

// NewNavigator is the Fx constructor; the history starts at "/".
func NewNavigator() service.Navigator {
	return NewHistory("/")
}

// Navigate implements service.Navigator. Navigating to the current path
// replaces its state instead of pushing a duplicate entry.
func (h *History) Navigate(path string, state map[string]string) {
	loc := entity.Location{Path: path, State: maps.Clone(state)}

	h.mu.Lock()
	top := len(h.entries) - 1
	if h.entries[top].Path == path {
		if state != nil {
			h.entries[top] = loc
		}
		h.mu.Unlock()

		return
	}
	h.entries = append(h.entries, loc)
	listeners := h.listenersLocked()
	h.mu.Unlock()

	notify(listeners, loc)
}

// Back implements service.Navigator
func (h *History) Back() {
	h.mu.Lock()
	if len(h.entries) == 1 {
		h.mu.Unlock()

		return
	}
	h.entries = h.entries[:len(h.entries)-1]
	loc := h.entries[len(h.entries)-1]
	listeners := h.listenersLocked()
	h.mu.Unlock()

	notify(listeners, loc)
}

// Current implements service.Navigator
func (h *History) Current() entity.Location {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc := h.entries[len(h.entries)-1]

	return entity.Location{Path: loc.Path, State: maps.Clone(loc.State)}
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}

// Watch implements service.Navigator
func (h *History) Watch(fn func(entity.Location)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *History) listenersLocked() []func(entity.Location) {
	listeners := make([]func(entity.Location), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}

	return listeners
}

func notify(listeners []func(entity.Location), loc entity.Location) {
	for _, fn := range listeners {
		fn(entity.Location{Path: loc.Path, State: maps.Clone(loc.State)})
	}
}
