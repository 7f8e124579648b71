package service

import "etuition/internal/domain/entity"

// Navigator is the client-side navigation history.
type Navigator interface {
	// Navigate pushes a new location.
	Navigate(path string, state map[string]string)

	// Back pops the history; at the first entry it stays in place.
	Back()

	// Current returns the location on top of the history.
	Current() entity.Location

	// Watch registers a listener called after every location change.
	Watch(fn func(entity.Location)) (cancel func())
}
