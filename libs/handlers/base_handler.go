// Package handlers provides helpers shared by HTTP handlers
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/middlewares"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse is the body of responses that only confirm an action
type MessageResponse struct {
	Message string `json:"message"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondServiceError translates an error returned by a service into a response.
// Typed errors keep their message and status; anything else is logged and
// answered with a generic 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
		h.RespondJSON(w, appErr.Status(), ErrorResponse{Error: appErr.Message, Details: appErr.Details})
		return
	}

	h.Logger.Error("request failed",
		zap.String("request_id", middlewares.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	h.RespondError(w, http.StatusInternalServerError, "internal server error")
}

// ParseID reads a positive integer URL parameter
func (h *BaseHandler) ParseID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id", nil)
	}
	return id, nil
}

// DecodeJSON decodes the request body into dst
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required", nil)
		case errors.As(err, &maxBytesErr):
			return apperr.Validation("request body too large", nil)
		default:
			return apperr.Validation(fmt.Sprintf("invalid request body: %s", err.Error()), nil)
		}
	}
	return nil
}
