package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/middleware"
	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/api/validation"
)

type UserService interface {
	Register(ctx context.Context, externalID string) (*dto.UserResponse, error)
	Get(ctx context.Context, externalID string) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, externalID string, state models.ApprovalState) (*dto.UserResponse, error)
}

type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles POST /users/register. Registration is idempotent: a known
// external id returns the existing record.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	var req dto.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, traceID, "Invalid request body", err, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateRequest(&req); err != nil {
		respondError(w, h.logger, traceID, err.Error(), err, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Register(r.Context(), req.ExternalID)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to register user", err, statusForError(err))
		return
	}

	h.logger.Info("User registered",
		zap.String("trace_id", traceID),
		zap.String("external_id", resp.ExternalID),
		zap.String("approval_state", resp.ApprovalState),
	)

	respondJSON(w, http.StatusCreated, resp)
}

// Get handles GET /users/{external_id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodGet {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	externalID := strings.TrimPrefix(r.URL.Path, "/users/")
	if externalID == "" {
		respondError(w, h.logger, traceID, "External ID is required", nil, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Get(r.Context(), externalID)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to get user", err, statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles POST /users/update_status, the administrative
// approval decision.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		respondError(w, h.logger, traceID, "Method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	var req dto.UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, traceID, "Invalid request body", err, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateRequest(&req); err != nil {
		respondError(w, h.logger, traceID, err.Error(), err, http.StatusBadRequest)
		return
	}

	state, ok := models.ParseApprovalState(req.Status)
	if !ok {
		respondError(w, h.logger, traceID, "Invalid approval state", nil, http.StatusBadRequest)
		return
	}

	resp, err := h.service.UpdateStatus(r.Context(), req.ExternalID, state)
	if err != nil {
		respondError(w, h.logger, traceID, "Failed to update user status", err, statusForError(err))
		return
	}

	h.logger.Info("User approval updated",
		zap.String("trace_id", traceID),
		zap.String("external_id", resp.ExternalID),
		zap.String("approval_state", resp.ApprovalState),
	)

	respondJSON(w, http.StatusOK, resp)
}
