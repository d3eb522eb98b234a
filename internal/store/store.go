// Package store provides collection storage interfaces and implementations.
//
// The todo collection is loaded and saved wholesale: every mutating
// operation reads the full ordered sequence, transforms it in memory, and
// rewrites it. The dataset is assumed small enough for that to be cheap.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
)

// ErrSave reports a failure to persist the collection.
var ErrSave = errors.New("saving collection")

// Store defines the interface for collection storage operations.
type Store interface {
	// LoadAll returns the full ordered collection. A missing or
	// unreadable backing store yields an empty collection, never an
	// error (fail-safe-empty).
	LoadAll(ctx context.Context) ([]model.TodoItem, error)

	// SaveAll serializes the full collection, replacing the previous
	// content of the backing store.
	SaveAll(ctx context.Context, todos []model.TodoItem) error
}
