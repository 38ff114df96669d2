package jsonstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/Makepad-fr/tada/internal/model"
)

// JSON-backed storage for the dev endpoint. Single file, human-readable.
// The mutex serializes requests within one process; there is no file locking.

const DefaultFileName = "todos.json"

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by path; an empty path means ./todos.json.
func New(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Save(todos []model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(todos)
}

// Update loads, applies fn and saves only when fn returns nil.
func (s *Store) Update(fn func([]model.Todo) ([]model.Todo, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return err
	}
	todos, err = fn(todos)
	if err != nil {
		return err
	}
	return s.save(todos)
}

func (s *Store) load() ([]model.Todo, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var todos []model.Todo
	if err := sonic.Unmarshal(b, &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

func (s *Store) save(todos []model.Todo) error {
	b, err := sonic.ConfigStd.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
