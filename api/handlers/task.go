package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/middleware"
	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/api/validation"
)

type TaskService interface {
	Create(ctx context.Context, traceID string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	ListByOwner(ctx context.Context, externalID string) ([]*dto.TaskResponse, error)
	ListAll(ctx context.Context) ([]*dto.TaskResponse, error)
	UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) (*dto.TaskResponse, error)
	Status(ctx context.Context, taskID int64) (*dto.TaskStatusResponse, error)
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /tasks/create.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, traceID, "Invalid request body", err, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateRequest(&req); err != nil {
		respondError(w, h.logger, traceID, err.Error(), err, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(r.Context(), traceID, &req)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to create task", err, statusForError(err))
		return
	}

	h.logger.Info("Task created",
		zap.String("trace_id", traceID),
		zap.Int64("task_id", resp.ID),
		zap.String("action", resp.Action),
	)

	respondJSON(w, http.StatusCreated, resp)
}

// List handles GET /tasks/ (all tasks) and GET /tasks/{external_id}
// (one owner's tasks in creation order).
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodGet {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	externalID := strings.TrimPrefix(r.URL.Path, "/tasks/")

	var (
		resp []*dto.TaskResponse
		err  error
	)
	if externalID == "" {
		resp, err = h.service.ListAll(r.Context())
	} else {
		resp, err = h.service.ListByOwner(r.Context(), externalID)
	}
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to list tasks", err, statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles POST /tasks/update_status, the administrative
// override path.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	var req dto.UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, traceID, "Invalid request body", err, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateRequest(&req); err != nil {
		respondError(w, h.logger, traceID, err.Error(), err, http.StatusBadRequest)
		return
	}

	status, ok := models.ParseTaskStatus(req.Status)
	if !ok {
		respondError(w, h.logger, traceID, "Invalid status", nil, http.StatusBadRequest)
		return
	}

	resp, err := h.service.UpdateStatus(r.Context(), req.TaskID, status)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to update task status", err, statusForError(err))
		return
	}

	h.logger.Info("Task status updated",
		zap.String("trace_id", traceID),
		zap.Int64("task_id", resp.ID),
		zap.String("status", resp.Status),
	)

	respondJSON(w, http.StatusOK, resp)
}

// Status handles GET /tasks/status/{task_id} for client polling.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodGet {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/tasks/status/")
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID <= 0 {
		respondError(w, h.logger, traceID, "Task ID is required", err, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Status(r.Context(), taskID)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to get task status", err, statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
