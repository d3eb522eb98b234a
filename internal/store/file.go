package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
)

// filePerm is the permission mode for the data file.
const filePerm = 0o600

// FileStore implements Store backed by a single JSON file holding an
// array of todo objects. The file is rewritten in full on every save.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileStore creates a FileStore for the given path. The file is created
// lazily on first save; a missing file reads as an empty collection.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// LoadAll reads the backing file and returns the full collection.
//
// Fail-safe-empty policy: a missing, unreadable, or unparsable file, or a
// file containing any record that fails validation, yields an empty
// collection rather than partial or half-parsed data.
func (s *FileStore) LoadAll(ctx context.Context) ([]model.TodoItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load collection: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read data file, treating as empty",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return []model.TodoItem{}, nil
	}

	var todos []model.TodoItem
	if err := json.Unmarshal(data, &todos); err != nil {
		s.logger.Warn("failed to parse data file, treating as empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return []model.TodoItem{}, nil
	}

	for i := range todos {
		todos[i].Normalize()
		if err := todos[i].Validate(); err != nil {
			s.logger.Warn("invalid record in data file, treating as empty",
				zap.String("path", s.path),
				zap.Int("record", i),
				zap.Error(err),
			)
			return []model.TodoItem{}, nil
		}
	}

	if todos == nil {
		todos = []model.TodoItem{}
	}

	return todos, nil
}

// SaveAll serializes the full collection and overwrites the backing file.
// The write goes to a temp file in the same directory followed by a
// rename, so readers never observe a torn file.
func (s *FileStore) SaveAll(ctx context.Context, todos []model.TodoItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save collection: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if todos == nil {
		todos = []model.TodoItem{}
	}

	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".todos-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	return nil
}
