package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
)

// AdminStatus handles GET /admin/v1/status.
func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.kv.Stats(r.Context())
	resp := map[string]any{
		"status":  "running",
		"version": buildinfo.Get().Version,
		"keys":    stats.Keys,
		"shards":  len(stats.Shards),
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if h.storage != nil {
		resp["storage"] = h.storage.Status()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// Backup handles GET /admin/v1/backup by streaming a full storage backup.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil || !h.storage.Persistent() {
		h.writeError(w, r, http.StatusConflict, domain.ErrBadRequest.Code, "storage is not persistent", nil)
		return
	}

	name := fmt.Sprintf("shardkv-%s.backup", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	// Headers are gone once streaming starts, so a late failure can only
	// be logged and the body cut short.
	if err := h.storage.Backup(r.Context(), w); err != nil {
		logger.L(r.Context()).Error("backup failed", "error", err)
		return
	}
	logger.L(r.Context()).Info("backup streamed", "file", name)
}
