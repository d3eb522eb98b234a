// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation is the common base for all field validation errors so
// callers can map any of them to a single HTTP status.
var ErrValidation = errors.New("validation failed")

// Validation errors for TodoItem fields.
var (
	ErrInvalidID          = fmt.Errorf("%w: id must be positive", ErrValidation)
	ErrEmptyTitle         = fmt.Errorf("%w: title cannot be empty", ErrValidation)
	ErrTitleTooLong       = fmt.Errorf("%w: title cannot exceed 100 characters", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: description cannot be empty", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description cannot exceed 500 characters", ErrValidation)
)

// Validation constants.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// TodoItem represents one task record. The collection of items stored in
// the backing file is the single source of truth.
type TodoItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Normalize trims surrounding whitespace from the text fields. It must be
// applied before Validate and before persisting the item.
func (t *TodoItem) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
}

// Validate checks if the TodoItem has valid field values. The fields are
// checked as-is; call Normalize first.
func (t *TodoItem) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}

	if err := validateText(t.Title, t.Description); err != nil {
		return err
	}

	return nil
}

// TodoInput is the payload for create and update operations. Clients never
// supply an id; the service assigns one on create and preserves it on
// update. Done defaults to false when omitted from the request body.
type TodoInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *TodoInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
}

// Validate checks if the TodoInput has valid field values.
func (in *TodoInput) Validate() error {
	return validateText(in.Title, in.Description)
}

// validateText enforces the shared title/description constraints.
func validateText(title, description string) error {
	if title == "" {
		return ErrEmptyTitle
	}

	if len([]rune(title)) > MaxTitleLength {
		return ErrTitleTooLong
	}

	if description == "" {
		return ErrEmptyDescription
	}

	if len([]rune(description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}

	return nil
}

// TodoPage is the response shape for the paginated listing.
type TodoPage struct {
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
	Items      []TodoItem `json:"items"`
}

// StatusList is the response shape for the by-status listing.
type StatusList struct {
	Status string     `json:"status"`
	Count  int        `json:"count"`
	Todos  []TodoItem `json:"todos"`
}

// DeleteConfirmation is the response shape for a successful delete.
type DeleteConfirmation struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TodoEventType identifies the kind of change carried by a TodoEvent.
type TodoEventType string

// Todo change event types.
const (
	TodoEventCreated TodoEventType = "created"
	TodoEventUpdated TodoEventType = "updated"
	TodoEventDeleted TodoEventType = "deleted"
	TodoEventToggled TodoEventType = "toggled"
)

// TodoEvent represents a change notification sent over the WebSocket feed.
type TodoEvent struct {
	Type      TodoEventType `json:"type"`
	Todo      TodoItem      `json:"todo"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewTodoEvent creates a change event for the given item.
func NewTodoEvent(eventType TodoEventType, todo TodoItem) TodoEvent {
	return TodoEvent{
		Type:      eventType,
		Todo:      todo,
		Timestamp: time.Now().UTC(),
	}
}
