package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"zonuko/internal/logger"
	"zonuko/internal/security"
	"zonuko/internal/service"
	"zonuko/internal/validation"
)

const (
	ErrInvalidRequest      = "Invalid request"
	ErrUnauthorized        = "Unauthorized"
	ErrNotFound            = "Not found"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil && log != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	body := errorResponse{Error: userMsg}
	if fields := validation.Fields(err); fields != nil {
		body.Fields = fields
	}
	respondJSON(w, status, body)
}

// respondWithServiceError maps service sentinels to status codes.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrChildNotFound), errors.Is(err, service.ErrProjectNotFound):
		respondWithError(w, nil, http.StatusNotFound, ErrNotFound, "", nil)
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrMissingToken):
		respondWithError(w, nil, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
