package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
	"github.com/vyrodovalexey/todoapi-example/internal/service"
)

// Version is the application version.
const Version = "1.0.0"

// Default pagination values for the listing endpoint.
const (
	defaultPage = 1
	defaultSize = 10
)

// RESTHandler handles REST API requests for todos.
type RESTHandler struct {
	todos  *service.TodoService
	logger *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(todos *service.TodoService, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		todos:  todos,
		logger: logger,
	}
}

// RegisterRoutes registers the REST API routes with the router. The
// numeric id constraint keeps /todos/status/{status} unambiguous and
// makes non-numeric ids a routing 404.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/todos", h.ListTodos).Methods(http.MethodGet)
	router.HandleFunc("/todos", h.CreateTodo).Methods(http.MethodPost)
	router.HandleFunc("/todos/status/{status}", h.ListTodosByStatus).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id:[0-9]+}", h.GetTodo).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id:[0-9]+}", h.UpdateTodo).Methods(http.MethodPut)
	router.HandleFunc("/todos/{id:[0-9]+}", h.DeleteTodo).Methods(http.MethodDelete)
	router.HandleFunc("/todos/{id:[0-9]+}/toggle", h.ToggleTodo).Methods(http.MethodPatch)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ListTodos handles GET /todos requests.
func (h *RESTHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	page, err := queryInt(query.Get("page"), defaultPage)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}

	size, err := queryInt(query.Get("size"), defaultSize)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "size must be an integer")
		return
	}

	result, err := h.todos.List(
		ctx, page, size, query.Get("order_by"), query.Get("order_direction"),
	)
	if err != nil {
		h.handleServiceError(w, err, "list todos")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetTodo handles GET /todos/{id} requests.
func (h *RESTHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	todo, err := h.todos.Get(ctx, id)
	if err != nil {
		h.handleServiceError(w, err, "get todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// CreateTodo handles POST /todos requests.
func (h *RESTHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input model.TodoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.todos.Create(ctx, input)
	if err != nil {
		h.handleServiceError(w, err, "create todo")
		return
	}

	h.writeJSON(w, http.StatusCreated, todo)
}

// UpdateTodo handles PUT /todos/{id} requests.
func (h *RESTHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	var input model.TodoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.todos.Update(ctx, id, input)
	if err != nil {
		h.handleServiceError(w, err, "update todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE /todos/{id} requests.
func (h *RESTHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	if err := h.todos.Delete(ctx, id); err != nil {
		h.handleServiceError(w, err, "delete todo")
		return
	}

	h.writeJSON(w, http.StatusOK, model.DeleteConfirmation{
		Message: "todo deleted",
	})
}

// ToggleTodo handles PATCH /todos/{id}/toggle requests.
func (h *RESTHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	todo, err := h.todos.Toggle(ctx, id)
	if err != nil {
		h.handleServiceError(w, err, "toggle todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// ListTodosByStatus handles GET /todos/status/{status} requests.
func (h *RESTHandler) ListTodosByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := mux.Vars(r)["status"]

	result, err := h.todos.ListByStatus(ctx, status)
	if err != nil {
		h.handleServiceError(w, err, "list todos by status")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// handleServiceError maps service errors to HTTP responses.
func (h *RESTHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "todo not found")
	case errors.Is(err, service.ErrInvalidOrderField),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPagination):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrValidation):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("service operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{
		Code:    status,
		Message: message,
	})
}

// pathID extracts the numeric id path variable. The route pattern
// guarantees it parses.
func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

// queryInt parses an optional integer query parameter.
func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
