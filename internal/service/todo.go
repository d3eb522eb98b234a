// Package service implements the todo operations on top of a collection
// store. Each operation loads the full collection, transforms it in
// memory, and (for mutations) rewrites it; a service-level lock makes the
// load-modify-save sequence atomic within the process.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
	"github.com/vyrodovalexey/todoapi-example/internal/store"
)

// Service errors.
var (
	ErrNotFound          = errors.New("todo not found")
	ErrInvalidOrderField = errors.New(
		"order_by must be one of: description, done, id, title",
	)
	ErrInvalidStatus = errors.New(
		"status must be 'completed' or 'pending'",
	)
	ErrInvalidPagination = errors.New(
		"page must be >= 1 and size must be between 1 and 100",
	)
)

// Pagination bounds for List.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// Statuses accepted by ListByStatus.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// orderFields are the fields accepted by List's order_by parameter.
var orderFields = map[string]bool{
	"id":          true,
	"title":       true,
	"description": true,
	"done":        true,
}

// todoOperationsTotal counts committed service operations by name.
var todoOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "todo_operations_total",
		Help: "Total number of completed todo operations",
	},
	[]string{"operation"},
)

// EventSink receives change notifications after a mutation commits.
type EventSink interface {
	Publish(event model.TodoEvent)
}

// TodoService owns the in-memory working copy of the collection for the
// duration of one operation. It keeps no cross-request cache; the stored
// collection is the single source of truth.
type TodoService struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger
	events EventSink // optional, may be nil
}

// New creates a TodoService on top of the given store.
func New(s store.Store, logger *zap.Logger) *TodoService {
	return &TodoService{
		store:  s,
		logger: logger,
	}
}

// SetEventSink attaches a sink for change events. Must be called before
// the service starts handling requests.
func (s *TodoService) SetEventSink(sink EventSink) {
	s.events = sink
}

// List returns one page of the collection, optionally sorted by orderBy.
// The sort is stable: items with equal keys keep their stored order. A
// page beyond the end of the collection yields an empty items slice.
func (s *TodoService) List(
	ctx context.Context,
	page, size int,
	orderBy, orderDirection string,
) (*model.TodoPage, error) {
	if page < 1 || size < MinPageSize || size > MaxPageSize {
		return nil, ErrInvalidPagination
	}

	if orderBy != "" && !orderFields[orderBy] {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidOrderField, orderBy)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	if orderBy != "" {
		sortTodos(todos, orderBy, orderDirection == "desc")
	}

	total := len(todos)
	start := (page - 1) * size
	end := start + size

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]model.TodoItem, end-start)
	copy(items, todos[start:end])

	todoOperationsTotal.WithLabelValues("list").Inc()

	return &model.TodoPage{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
		Items:      items,
	}, nil
}

// Get returns the item with the given id.
func (s *TodoService) Get(ctx context.Context, id int) (*model.TodoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range todos {
		if todos[i].ID == id {
			todoOperationsTotal.WithLabelValues("get").Inc()
			todo := todos[i]
			return &todo, nil
		}
	}

	return nil, ErrNotFound
}

// Create validates the input, assigns the next free id, appends the item,
// and persists the collection. Nothing is persisted when validation fails.
func (s *TodoService) Create(
	ctx context.Context,
	input model.TodoInput,
) (*model.TodoItem, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	todo := model.TodoItem{
		ID:          nextID(todos),
		Title:       input.Title,
		Description: input.Description,
		Done:        input.Done,
	}

	todos = append(todos, todo)
	if err := s.store.SaveAll(ctx, todos); err != nil {
		return nil, err
	}

	s.logger.Info("todo created", zap.Int("id", todo.ID))
	todoOperationsTotal.WithLabelValues("create").Inc()
	s.publish(model.TodoEventCreated, todo)

	return &todo, nil
}

// Update replaces the mutable fields of the item with the given id. The
// id itself never changes.
func (s *TodoService) Update(
	ctx context.Context,
	id int,
	input model.TodoInput,
) (*model.TodoItem, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range todos {
		if todos[i].ID != id {
			continue
		}

		updated := model.TodoItem{
			ID:          id,
			Title:       input.Title,
			Description: input.Description,
			Done:        input.Done,
		}
		todos[i] = updated

		if err := s.store.SaveAll(ctx, todos); err != nil {
			return nil, err
		}

		s.logger.Info("todo updated", zap.Int("id", id))
		todoOperationsTotal.WithLabelValues("update").Inc()
		s.publish(model.TodoEventUpdated, updated)

		return &updated, nil
	}

	return nil, ErrNotFound
}

// Delete removes the item with the given id from the collection.
func (s *TodoService) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	remaining := todos[:0:0]
	var removed *model.TodoItem
	for i := range todos {
		if todos[i].ID == id {
			deleted := todos[i]
			removed = &deleted
			continue
		}
		remaining = append(remaining, todos[i])
	}

	if removed == nil {
		return ErrNotFound
	}

	if err := s.store.SaveAll(ctx, remaining); err != nil {
		return err
	}

	s.logger.Info("todo deleted", zap.Int("id", id))
	todoOperationsTotal.WithLabelValues("delete").Inc()
	s.publish(model.TodoEventDeleted, *removed)

	return nil
}

// Toggle flips the done flag of the item with the given id.
func (s *TodoService) Toggle(ctx context.Context, id int) (*model.TodoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range todos {
		if todos[i].ID != id {
			continue
		}

		todos[i].Done = !todos[i].Done
		toggled := todos[i]

		if err := s.store.SaveAll(ctx, todos); err != nil {
			return nil, err
		}

		s.logger.Info("todo toggled",
			zap.Int("id", id),
			zap.Bool("done", toggled.Done),
		)
		todoOperationsTotal.WithLabelValues("toggle").Inc()
		s.publish(model.TodoEventToggled, toggled)

		return &toggled, nil
	}

	return nil, ErrNotFound
}

// ListByStatus returns the items whose done flag matches the given
// status, in stored order and without pagination.
func (s *TodoService) ListByStatus(
	ctx context.Context,
	status string,
) (*model.StatusList, error) {
	if status != StatusCompleted && status != StatusPending {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidStatus, status)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	done := status == StatusCompleted
	filtered := make([]model.TodoItem, 0, len(todos))
	for i := range todos {
		if todos[i].Done == done {
			filtered = append(filtered, todos[i])
		}
	}

	todoOperationsTotal.WithLabelValues("list_by_status").Inc()

	return &model.StatusList{
		Status: status,
		Count:  len(filtered),
		Todos:  filtered,
	}, nil
}

// publish forwards a change event to the sink, if one is attached.
func (s *TodoService) publish(eventType model.TodoEventType, todo model.TodoItem) {
	if s.events == nil {
		return
	}
	s.events.Publish(model.NewTodoEvent(eventType, todo))
}

// nextID computes the id for a new item: one past the current maximum, or
// 1 for an empty collection.
func nextID(todos []model.TodoItem) int {
	maxID := 0
	for i := range todos {
		if todos[i].ID > maxID {
			maxID = todos[i].ID
		}
	}
	return maxID + 1
}

// sortTodos sorts the collection by the given field. The sort is stable
// so equal keys keep their original relative order.
func sortTodos(todos []model.TodoItem, field string, desc bool) {
	var less func(a, b *model.TodoItem) bool

	switch field {
	case "id":
		less = func(a, b *model.TodoItem) bool { return a.ID < b.ID }
	case "title":
		less = func(a, b *model.TodoItem) bool { return a.Title < b.Title }
	case "description":
		less = func(a, b *model.TodoItem) bool { return a.Description < b.Description }
	case "done":
		less = func(a, b *model.TodoItem) bool { return !a.Done && b.Done }
	default:
		return
	}

	sort.SliceStable(todos, func(i, j int) bool {
		if desc {
			return less(&todos[j], &todos[i])
		}
		return less(&todos[i], &todos[j])
	})
}
