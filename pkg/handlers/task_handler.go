package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/tasks"
)

// TaskListResponse for GET /api/tasks
type TaskListResponse struct {
	Tasks []tasks.Snapshot `json:"tasks"`
	Total int              `json:"total"`
}

// TaskHandler exposes background task state for operators.
type TaskHandler struct {
	runner *tasks.Runner
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(runner *tasks.Runner, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{runner: runner, logger: logger}
}

// RegisterRoutes registers the task handler's routes on the given mux.
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("GET /api/tasks/{tid}", h.Get)
}

// List handles GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots := h.runner.Snapshots()

	response := TaskListResponse{
		Tasks: snapshots,
		Total: len(snapshots),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{tid}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("tid")

	snapshot, ok := h.runner.Snapshot(taskID)
	if !ok {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Task not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: snapshot}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
