package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/repository"
	"github.com/mzimer/vidmore/api/service"
)

// statusForError maps the store/service error taxonomy onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrOwnerNotApproved):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, traceID, message string, err error, status int) {
	logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
