// Package api exposes the rate limiter over JSON HTTP endpoints so a host
// service can register clients and check admissions remotely.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/yourusername/tokengate/pkg/tokengate"
)

// Handler serves the registration and admission endpoints.
type Handler struct {
	limiter *tokengate.Limiter
	logger  *slog.Logger
}

// NewHandler creates a Handler around limiter. A nil logger disables logging.
func NewHandler(limiter *tokengate.Limiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{limiter: limiter, logger: logger}
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Key        string  `json:"key"`
	Capacity   int64   `json:"capacity"`
	RefillRate float64 `json:"refill_rate"`
}

// CheckRequest is the body of POST /check.
type CheckRequest struct {
	Key string `json:"key"`
}

// CheckResponse is the body of a successful POST /check.
type CheckResponse struct {
	Allowed      bool  `json:"allowed"`
	Remaining    int64 `json:"remaining"`
	Limit        int64 `json:"limit"`
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"`
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Register handles POST /register: create a bucket for a key.
//
// Responses: 201 on success, 400 for invalid input, 409 when the key is
// already registered.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.limiter.RegisterUser(req.Key, req.Capacity, req.RefillRate)
	switch {
	case err == nil:
		h.logger.Info("registered key", "key", req.Key, "capacity", req.Capacity, "refill_rate", req.RefillRate)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "registered", "key": req.Key})
	case errors.Is(err, tokengate.ErrAlreadyRegistered):
		h.sendError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, tokengate.ErrInvalidConfiguration), errors.Is(err, tokengate.ErrInvalidKey):
		h.sendError(w, http.StatusBadRequest, "invalid_configuration", err.Error())
	default:
		h.logger.Error("register failed", "key", req.Key, "error", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", "registration failed")
	}
}

// Check handles POST /check: charge one token against a key's bucket.
//
// Responses: 200 with the decision, 400 for invalid input, 404 for an
// unregistered key (the caller decides fail open vs fail closed).
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	decision, err := h.limiter.Check(req.Key)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CheckResponse{
			Allowed:      decision.Allowed,
			Remaining:    decision.Remaining,
			Limit:        decision.Limit,
			RetryAfterMs: decision.RetryAfter.Milliseconds(),
		})
	case errors.Is(err, tokengate.ErrUnknownKey):
		h.sendError(w, http.StatusNotFound, "unknown_key", err.Error())
	case errors.Is(err, tokengate.ErrInvalidKey):
		h.sendError(w, http.StatusBadRequest, "invalid_key", err.Error())
	default:
		h.logger.Error("check failed", "key", req.Key, "error", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", "check failed")
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
