package redisserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/internal/telemetry/metric"
)

// formatError converts an error to a RESP error string. Domain errors
// carry their code: "ERR SKV-KEY-4001 invalid key".
func formatError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Code + " " + de.Message
	}
	return "ERR " + err.Error()
}

var knownCommands = map[string]bool{
	"PING": true, "AUTH": true, "QUIT": true, "ECHO": true, "COMMAND": true,
	"GET": true, "SET": true, "DEL": true, "UNLINK": true, "EXISTS": true,
	"RENAME": true, "RENAMENX": true, "KEYS": true, "DBSIZE": true, "INFO": true,
}

// CommandHandler runs RESP commands against a KVService.
type CommandHandler struct {
	kv       *service.KVService
	password string
	limiter  Limiter
	metrics  *metric.Registry
	log      logger.Logger
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(kv *service.KVService, cfg Config, log logger.Logger) *CommandHandler {
	return &CommandHandler{
		kv:       kv,
		password: cfg.Password,
		limiter:  cfg.Limiter,
		metrics:  cfg.Metrics,
		log:      log,
	}
}

// Handle runs one command and writes its reply to the connection buffer.
func (h *CommandHandler) Handle(conn *Conn, args [][]byte) {
	name := commandName(args[0])
	start := time.Now()
	ok := h.dispatch(conn, name, args)

	if h.metrics != nil {
		code := "ok"
		if !ok {
			code = "err"
		}
		label := name
		if !knownCommands[name] {
			label = "unknown"
		}
		h.metrics.RequestsTotal.WithLabelValues("RESP", label, code).Inc()
		h.metrics.RequestDuration.WithLabelValues("RESP", label).Observe(time.Since(start).Seconds())
	}
}

// dispatch reports false when it replied with an error.
func (h *CommandHandler) dispatch(conn *Conn, name string, args [][]byte) bool {
	// Connection commands work before AUTH.
	switch name {
	case "PING":
		return h.handlePing(conn, args)
	case "AUTH":
		return h.handleAuth(conn, args)
	case "QUIT":
		conn.out.status("OK")
		_ = conn.out.Flush()
		_ = conn.Close()
		return true
	}

	if !conn.authenticated {
		return replyError(conn, "NOAUTH Authentication required.")
	}
	if h.limiter != nil && !h.limiter.Allow(clientIP(conn)) {
		return replyError(conn, formatError(domain.ErrRateLimited))
	}

	ctx := conn.ctx
	switch name {
	case "ECHO":
		if len(args) != 2 {
			return wrongArgs(conn, name)
		}
		conn.out.bulk(args[1])
		return true
	case "COMMAND":
		// redis-cli asks for command docs on connect; an empty list is enough.
		conn.out.array(0)
		return true
	case "GET":
		return h.handleGet(ctx, conn, args)
	case "SET":
		return h.handleSet(ctx, conn, args)
	case "DEL", "UNLINK":
		return h.handleDel(ctx, conn, args)
	case "EXISTS":
		return h.handleExists(ctx, conn, args)
	case "RENAME":
		return h.handleRename(ctx, conn, args, true)
	case "RENAMENX":
		return h.handleRename(ctx, conn, args, false)
	case "KEYS":
		return h.handleKeys(ctx, conn, args)
	case "DBSIZE":
		conn.out.integer(int64(h.kv.Stats(ctx).Keys))
		return true
	case "INFO":
		return h.handleInfo(ctx, conn)
	default:
		return replyError(conn, "ERR unknown command '"+strings.ToLower(name)+"'")
	}
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) bool {
	switch len(args) {
	case 1:
		conn.out.status("PONG")
	case 2:
		conn.out.bulk(args[1])
	default:
		return wrongArgs(conn, "PING")
	}
	return true
}

// AUTH password, or AUTH username password with the username ignored.
func (h *CommandHandler) handleAuth(conn *Conn, args [][]byte) bool {
	if len(args) < 2 || len(args) > 3 {
		return wrongArgs(conn, "AUTH")
	}
	if h.password == "" {
		return replyError(conn, "ERR AUTH called without any password configured")
	}

	given := args[len(args)-1]
	if subtle.ConstantTimeCompare(given, []byte(h.password)) != 1 {
		conn.authenticated = false
		h.log.Warn("failed AUTH", "remote", conn.RemoteAddr().String())
		return replyError(conn, "WRONGPASS invalid password")
	}
	conn.authenticated = true
	conn.out.status("OK")
	return true
}

func (h *CommandHandler) handleGet(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 2 {
		return wrongArgs(conn, "GET")
	}
	v, err := h.kv.Get(ctx, string(args[1]))
	if errors.Is(err, domain.ErrKeyNotFound) {
		conn.out.bulk(nil)
		return true
	}
	if err != nil {
		return replyError(conn, formatError(err))
	}
	if v == nil {
		v = []byte{}
	}
	conn.out.bulk(v)
	return true
}

// SET key value [NOWAIT]. NOWAIT fails with SKV-KEY-4230 instead of waiting
// for a busy shard.
func (h *CommandHandler) handleSet(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) < 3 {
		return wrongArgs(conn, "SET")
	}
	req := &service.PutRequest{Key: string(args[1]), Value: args[2]}
	for _, opt := range args[3:] {
		switch commandName(opt) {
		case "NOWAIT":
			req.NoWait = true
		case "EX", "PX", "EXAT", "PXAT", "KEEPTTL":
			return replyError(conn, "ERR keys do not expire")
		default:
			return replyError(conn, "ERR syntax error")
		}
	}

	if _, err := h.kv.Put(ctx, req); err != nil {
		return replyError(conn, formatError(err))
	}
	conn.out.status("OK")
	return true
}

func (h *CommandHandler) handleDel(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) < 2 {
		return wrongArgs(conn, "DEL")
	}
	var n int64
	for _, k := range args[1:] {
		err := h.kv.Delete(ctx, string(k))
		switch {
		case err == nil:
			n++
		case errors.Is(err, domain.ErrKeyNotFound):
		default:
			return replyError(conn, formatError(err))
		}
	}
	conn.out.integer(n)
	return true
}

func (h *CommandHandler) handleExists(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) < 2 {
		return wrongArgs(conn, "EXISTS")
	}
	var n int64
	for _, k := range args[1:] {
		_, err := h.kv.Get(ctx, string(k))
		switch {
		case err == nil:
			n++
		case errors.Is(err, domain.ErrKeyNotFound):
		default:
			return replyError(conn, formatError(err))
		}
	}
	conn.out.integer(n)
	return true
}

// RENAME replies +OK; RENAMENX replies 1, or 0 when dst exists.
func (h *CommandHandler) handleRename(ctx context.Context, conn *Conn, args [][]byte, overwrite bool) bool {
	name := "RENAME"
	if !overwrite {
		name = "RENAMENX"
	}
	if len(args) != 3 {
		return wrongArgs(conn, name)
	}

	err := h.kv.Move(ctx, &service.MoveRequest{From: string(args[1]), To: string(args[2]), Overwrite: overwrite})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrKeyNotFound):
		return replyError(conn, "ERR no such key")
	case !overwrite && errors.Is(err, domain.ErrKeyExists):
		conn.out.integer(0)
		return true
	default:
		return replyError(conn, formatError(err))
	}

	if overwrite {
		conn.out.status("OK")
	} else {
		conn.out.integer(1)
	}
	return true
}

// KEYS supports "*", "prefix*" and literal keys. Matches are capped at
// service.MaxListLimit.
func (h *CommandHandler) handleKeys(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 2 {
		return wrongArgs(conn, "KEYS")
	}
	pattern := string(args[1])
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if strings.ContainsAny(prefix, "*?[]\\") {
		return replyError(conn, "ERR only 'prefix*' patterns are supported")
	}

	resp, err := h.kv.List(ctx, &service.ListRequest{Prefix: prefix, Limit: service.MaxListLimit})
	if err != nil {
		return replyError(conn, formatError(err))
	}
	keys := resp.Keys
	if !wildcard {
		keys = keys[:0]
		for _, k := range resp.Keys {
			if k == pattern {
				keys = append(keys, k)
			}
		}
	}

	conn.out.array(len(keys))
	for _, k := range keys {
		conn.out.bulkString(k)
	}
	return true
}

func (h *CommandHandler) handleInfo(ctx context.Context, conn *Conn) bool {
	stats := h.kv.Stats(ctx)

	var b strings.Builder
	b.WriteString("# Server\r\n")
	fmt.Fprintf(&b, "shardkv_version:%s\r\n", buildinfo.Get().Version)
	b.WriteString("# Keyspace\r\n")
	fmt.Fprintf(&b, "keys:%d\r\n", stats.Keys)
	fmt.Fprintf(&b, "shards:%d\r\n", len(stats.Shards))
	for _, sh := range stats.Shards {
		fmt.Fprintf(&b, "shard%d:keys=%d\r\n", sh.Index, sh.Count)
	}
	conn.out.bulkString(b.String())
	return true
}

func replyError(conn *Conn, msg string) bool {
	conn.out.fail(msg)
	return false
}

func wrongArgs(conn *Conn, name string) bool {
	return replyError(conn, "ERR wrong number of arguments for '"+strings.ToLower(name)+"' command")
}

func clientIP(conn *Conn) string {
	addr := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
