package localserver

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
)

// Handler executes control commands.
type Handler struct {
	kv       *service.KVService
	shutdown func()
	started  time.Time
}

// NewHandler creates a Handler. shutdown is called by the shutdown command
// and may be nil to disable it.
func NewHandler(kv *service.KVService, shutdown func()) *Handler {
	return &Handler{kv: kv, shutdown: shutdown, started: time.Now()}
}

type errorReply struct {
	Error string `json:"error"`
}

// Execute runs cmd and writes its JSON reply to w.
func (h *Handler) Execute(ctx context.Context, w io.Writer, cmd string, args []string) error {
	var reply any
	switch cmd {
	case "status":
		stats := h.kv.Stats(ctx)
		reply = map[string]any{
			"version":   buildinfo.Get().Version,
			"uptime":    time.Since(h.started).Round(time.Second).String(),
			"keys":      stats.Keys,
			"shards":    len(stats.Shards),
			"log_level": logger.GetLevel(),
		}
	case "stats":
		reply = h.kv.Stats(ctx)
	case "loglevel":
		reply = h.logLevel(args)
	case "shutdown":
		if h.shutdown == nil {
			reply = errorReply{"shutdown is disabled"}
			break
		}
		h.shutdown()
		reply = map[string]string{"status": "shutting down"}
	default:
		reply = errorReply{"unknown command: " + cmd}
	}
	return json.NewEncoder(w).Encode(reply)
}

func (h *Handler) logLevel(args []string) any {
	switch len(args) {
	case 0:
	case 1:
		if _, err := logger.ParseLevel(args[0]); err != nil {
			return errorReply{err.Error()}
		}
		logger.SetLevel(args[0])
	default:
		return errorReply{"usage: loglevel [LEVEL]"}
	}
	return map[string]string{"log_level": logger.GetLevel()}
}
