package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/core/service"
)

// GetKey handles GET /v1/keys/{key}.
func (h *Handler) GetKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := h.kv.Get(r.Context(), key)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(value)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

// PutKey handles PUT /v1/keys/{key}. With ?nowait=true a busy shard is
// reported as 423 instead of waited for.
func (h *Handler) PutKey(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(r.Body)
	if h.maxValue > 0 {
		body = http.MaxBytesReader(w, r.Body, int64(h.maxValue))
	}
	value, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleServiceError(w, r, domain.ErrValueTooLarge.WithDetails(
				"body exceeds limit of "+strconv.Itoa(h.maxValue)+" bytes"))
			return
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "cannot read request body", nil)
		return
	}

	nowait, _ := strconv.ParseBool(r.URL.Query().Get("nowait"))
	resp, err := h.kv.Put(r.Context(), &service.PutRequest{
		Key:    r.PathValue("key"),
		Value:  value,
		NoWait: nowait,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	h.writeJSON(w, r, status, resp)
}

// DeleteKey handles DELETE /v1/keys/{key}.
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.kv.Delete(r.Context(), key); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, DeleteResponse{Key: key, Deleted: true})
}

// ListKeys handles GET /v1/keys?prefix=&limit=.
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &service.ListRequest{Prefix: q.Get("prefix")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}

	resp, err := h.kv.List(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// MoveKey handles POST /v1/move.
func (h *Handler) MoveKey(w http.ResponseWriter, r *http.Request) {
	var req service.MoveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", nil)
		return
	}

	if err := h.kv.Move(r.Context(), &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, MoveResponse{
		From:      req.From,
		To:        req.To,
		FromShard: h.kv.Route(req.From),
		ToShard:   h.kv.Route(req.To),
	})
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.kv.Stats(r.Context()))
}
