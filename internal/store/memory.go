package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
)

// MemoryStore implements Store with in-memory storage. It is used when the
// server runs without a data file and by tests that need a fast backend.
type MemoryStore struct {
	mu    sync.RWMutex
	todos []model.TodoItem
}

// NewMemoryStore creates a new MemoryStore instance holding an empty
// collection.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos: []model.TodoItem{},
	}
}

// LoadAll returns a copy of the full collection.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]model.TodoItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load collection: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]model.TodoItem, len(s.todos))
	copy(todos, s.todos)

	return todos, nil
}

// SaveAll replaces the full collection with a copy of the given sequence.
func (s *MemoryStore) SaveAll(ctx context.Context, todos []model.TodoItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save collection: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]model.TodoItem, len(todos))
	copy(replacement, todos)
	s.todos = replacement

	return nil
}
