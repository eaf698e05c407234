package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
)

// Storage is the part of the storage engine the admin endpoints use.
type Storage interface {
	Persistent() bool
	Backup(ctx context.Context, w io.Writer) error
	Status() StorageStatus
}

// Config holds the Handler dependencies.
type Config struct {
	KV      *service.KVService
	Storage Storage
	Logger  logger.Logger

	// MaxValueBytes bounds PUT bodies. Zero or less disables the bound.
	MaxValueBytes int

	// Ready reports whether the server accepts traffic. Nil means always.
	Ready func() bool
}

// Handler serves the shardkv HTTP API.
type Handler struct {
	kv       *service.KVService
	storage  Storage
	logger   logger.Logger
	maxValue int
	ready    func() bool
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		kv:       cfg.KV,
		storage:  cfg.Storage,
		logger:   cfg.Logger,
		maxValue: cfg.MaxValueBytes,
		ready:    cfg.Ready,
	}
	if h.logger == nil {
		h.logger = logger.Default()
	}
	if h.ready == nil {
		h.ready = func() bool { return true }
	}
	return h
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
			h.writeError(w, r, status, de.Code, de.Message, nil)
			return
		}
		if status == http.StatusLocked {
			w.Header().Set("Retry-After", "0")
		}
		h.writeError(w, r, status, de.Code, de.Message, detailsOf(de))
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrServiceUnavailable.Code, "request canceled", nil)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

func detailsOf(de *domain.DomainError) any {
	if de.Details == "" {
		return nil
	}
	return de.Details
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case code == domain.ErrValueTooLarge.Code:
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4230"):
		return http.StatusLocked
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
