package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

// TodoHandler handles todo and recurring task requests
type TodoHandler struct {
	todos *handbook.Todos
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todos *handbook.Todos) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// RegisterRoutes registers todo routes on the given router
// The router should already have the /todos prefix
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/{id}/toggle", h.ToggleTodo).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteTodo).Methods("DELETE")
}

// RegisterRecurringRoutes registers recurring task routes on the given router
// The router should already have the /recurring prefix
func (h *TodoHandler) RegisterRecurringRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListRecurring).Methods("GET")
	r.HandleFunc("", h.CreateRecurring).Methods("POST")
	r.HandleFunc("/{id}/toggle", h.ToggleRecurring).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteRecurring).Methods("DELETE")
}

// ListTodos lists todos newest first
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.List(r.Context())
	if todos == nil {
		todos = []models.Todo{}
	}
	respondResult(w, http.StatusOK, todos, err, "todos")
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req handbook.TodoInput
	if !decodeJSON(w, r, &req) {
		return
	}
	todo, err := h.todos.Add(r.Context(), req)
	respondResult(w, http.StatusCreated, todo, err, "todo")
}

// ToggleTodo flips a todo's completed flag
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.todos.Toggle(r.Context(), mux.Vars(r)["id"])
	respondResult(w, http.StatusOK, todo, err, "todo")
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	err := h.todos.Delete(r.Context(), mux.Vars(r)["id"])
	respondNoContent(w, err, "todo")
}

// ListRecurring lists recurring tasks newest first
func (h *TodoHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.todos.ListRecurring(r.Context())
	if tasks == nil {
		tasks = []models.RecurringTask{}
	}
	respondResult(w, http.StatusOK, tasks, err, "recurring tasks")
}

// CreateRecurring creates an active recurring task
func (h *TodoHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req handbook.RecurringInput
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.todos.AddRecurring(r.Context(), req)
	respondResult(w, http.StatusCreated, task, err, "recurring task")
}

// ToggleRecurring flips a recurring task's active flag
func (h *TodoHandler) ToggleRecurring(w http.ResponseWriter, r *http.Request) {
	task, err := h.todos.ToggleRecurring(r.Context(), mux.Vars(r)["id"])
	respondResult(w, http.StatusOK, task, err, "recurring task")
}

// DeleteRecurring deletes a recurring task
func (h *TodoHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	err := h.todos.DeleteRecurring(r.Context(), mux.Vars(r)["id"])
	respondNoContent(w, err, "recurring task")
}
