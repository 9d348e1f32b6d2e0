// Package statestore holds last-known-good server state for display lists.
// A store retains the unfiltered collection alongside the active view so a
// search filter can be applied and cleared non-destructively: filtering is
// always recomputed from the retained copy, and an empty term restores the
// full set exactly.
package statestore

import (
	"strings"
	"sync"
)

// Store caches one collection. DisplayField selects the string the search
// filter matches against. Last write wins; there is no cross-writer
// coordination.
type Store[T any] struct {
	mu    sync.RWMutex
	all   []T
	view  []T
	term  string
	field func(T) string
}

// New creates a store whose Search matches case-insensitively against the
// value displayField extracts.
func New[T any](displayField func(T) string) *Store[T] {
	return &Store[T]{field: displayField}
}

// Set replaces the cached collection and reapplies the active search term to
// the new data.
func (s *Store[T]) Set(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = make([]T, len(items))
	copy(s.all, items)
	s.refilter()
}

// Search filters the view to items whose display field contains term,
// case-insensitively. An empty term restores the full collection.
func (s *Store[T]) Search(term string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = term
	s.refilter()
	return s.snapshot()
}

// refilter recomputes view from the retained unfiltered copy. Callers must
// hold the lock.
func (s *Store[T]) refilter() {
	if s.term == "" {
		s.view = s.all
		return
	}
	needle := strings.ToLower(s.term)
	filtered := make([]T, 0, len(s.all))
	for _, item := range s.all {
		if strings.Contains(strings.ToLower(s.field(item)), needle) {
			filtered = append(filtered, item)
		}
	}
	s.view = filtered
}

// Items returns the current view (filtered when a term is active).
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// All returns the retained unfiltered collection.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.all))
	copy(out, s.all)
	return out
}

// Term returns the active search term.
func (s *Store[T]) Term() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term
}

// Len returns the size of the current view.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.view)
}

func (s *Store[T]) snapshot() []T {
	out := make([]T, len(s.view))
	copy(out, s.view)
	return out
}

// Keyed is a map of stores, one per key (typically a principal), so one
// caller's cached view never leaks into another's.
type Keyed[T any] struct {
	mu     sync.Mutex
	stores map[string]*Store[T]
	field  func(T) string
}

func NewKeyed[T any](displayField func(T) string) *Keyed[T] {
	return &Keyed[T]{
		stores: make(map[string]*Store[T]),
		field:  displayField,
	}
}

// For returns the store for key, creating it on first use.
func (k *Keyed[T]) For(key string) *Store[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	st, ok := k.stores[key]
	if !ok {
		st = New(k.field)
		k.stores[key] = st
	}
	return st
}

// Drop discards the store for key, e.g. on logout.
func (k *Keyed[T]) Drop(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.stores, key)
}
