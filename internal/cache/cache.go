// Package cache keeps the client's transient view of the todo list: one record
// per todo ID plus the ordered root list the AppQuery result links to.
package cache

import (
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]model.Todo
	root    []string
}

func New() *Store {
	return &Store{records: make(map[string]model.Todo)}
}

// Replace drops everything and stores todos in the given order.
// Duplicate IDs keep the last record at the first position.
func (s *Store) Replace(todos []model.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]model.Todo, len(todos))
	s.root = s.root[:0]
	for _, t := range todos {
		if _, seen := s.records[t.ID]; !seen {
			s.root = append(s.root, t.ID)
		}
		s.records[t.ID] = t
	}
}

// Upsert merges a mutation result by ID. New IDs are appended to the root list.
func (s *Store) Upsert(t model.Todo) {
	if t.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[t.ID]; !ok {
		s.root = append(s.root, t.ID)
	}
	s.records[t.ID] = t
}

// Remove deletes the record and unlinks it from the root list.
// It reports whether the id was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	out := s.root[:0]
	for _, x := range s.root {
		if x != id {
			out = append(out, x)
		}
	}
	s.root = out
	return true
}

func (s *Store) Get(id string) (model.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.records[id]
	return t, ok
}

// List returns the todos in root order. The slice is a copy.
func (s *Store) List() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Todo, 0, len(s.root))
	for _, id := range s.root {
		out = append(out, s.records[id])
	}
	return out
}

func (s *Store) Stats() (done, pending int) {
	return model.Stats(s.List())
}
