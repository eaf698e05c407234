package tests

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/sharded-go/internal/cli/connection"
	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/server/httpserver"
	"github.com/yndnr/sharded-go/internal/server/httpserver/handler"
	"github.com/yndnr/sharded-go/internal/server/redisserver"
	"github.com/yndnr/sharded-go/internal/storage"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

type engineStorage struct{ e *storage.Engine }

func (s engineStorage) Persistent() bool { return s.e.Persistent() }

func (s engineStorage) Backup(ctx context.Context, w io.Writer) error { return s.e.Backup(ctx, w) }

func (s engineStorage) Status() handler.StorageStatus {
	st := s.e.Stats()
	return handler.StorageStatus{Persistent: s.e.Persistent(), LSMSize: st.LSMSize, ValueLogSize: st.ValueLogSize}
}

// node is one running server instance over a data directory.
type node struct {
	engine *storage.Engine
	http   *httptest.Server
	resp   *redisserver.Server
	client *connection.HTTPClient
	respLn net.Listener
}

func startNode(t *testing.T, dir string, shards int) *node {
	t.Helper()
	cfg := storage.DefaultBadgerConfig(dir)
	cfg.GCInterval = 0
	engine, err := storage.Open(context.Background(), cfg, logger.Slog(logger.Discard()), sharded.WithShardCount(shards))
	require.NoError(t, err)

	kv := service.NewKVService(engine.Store(), service.WithLogger(logger.Discard()))
	h := handler.New(handler.Config{KV: kv, Storage: engineStorage{engine}, Logger: logger.Discard()})
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:    h,
		Logger:     logger.Discard(),
		AdminToken: "token",
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	resp := redisserver.New(redisserver.Config{}, kv, logger.Discard())
	go func() { _ = resp.Serve(ln) }()

	return &node{
		engine: engine,
		http:   srv,
		resp:   resp,
		client: connection.NewHTTPClient(srv.URL, "token", 10*time.Second),
		respLn: ln,
	}
}

func (n *node) stop(t *testing.T) {
	t.Helper()
	n.http.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.resp.Shutdown(ctx))
	require.NoError(t, n.engine.Close())
}

func respDo(t *testing.T, addr string, args ...string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	_, err = io.WriteString(conn, b.String())
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	if line[0] != '$' || line == "$-1\r\n" {
		return strings.TrimRight(line, "\r\n")
	}
	value, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(value, "\r\n")
}

func TestEndToEnd_PersistAcrossRestarts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	ctx := context.Background()
	dir := t.TempDir()

	n := startNode(t, dir, 8)
	for i := 0; i < 50; i++ {
		_, err := n.client.Put(ctx, fmt.Sprintf("users/%02d", i), strings.NewReader(fmt.Sprintf("user-%d", i)), false)
		require.NoError(t, err)
	}
	_, err := n.client.Move(ctx, "users/00", "admins/00", false)
	require.NoError(t, err)
	require.NoError(t, n.client.Delete(ctx, "users/49"))

	// Writes through RESP land in the same store.
	assert.Equal(t, "+OK", respDo(t, n.respLn.Addr().String(), "SET", "config/mode", "strict"))
	assert.Equal(t, "strict", respDo(t, n.respLn.Addr().String(), "GET", "config/mode"))

	stats, err := n.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Keys)
	assert.Len(t, stats.Shards, 8)
	n.stop(t)

	// Reopen with a different shard count; keys are routed afresh.
	n = startNode(t, dir, 3)
	defer n.stop(t)

	stats, err = n.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Keys)
	assert.Len(t, stats.Shards, 3)

	v, err := n.client.Get(ctx, "admins/00")
	require.NoError(t, err)
	assert.Equal(t, "user-0", string(v))

	_, err = n.client.Get(ctx, "users/00")
	assert.True(t, connection.IsNotFound(err))
	_, err = n.client.Get(ctx, "users/49")
	assert.True(t, connection.IsNotFound(err))

	list, err := n.client.List(ctx, "config/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"config/mode"}, list.Keys)

	status, err := n.client.Status(ctx)
	require.NoError(t, err)
	storageStatus, ok := status["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, storageStatus["persistent"])

	var backup strings.Builder
	written, err := n.client.Backup(ctx, &backup)
	require.NoError(t, err)
	assert.Positive(t, written)
}

func TestEndToEnd_ConcurrentClients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	n := startNode(t, t.TempDir(), 4)
	defer n.stop(t)

	const workers, perWorker = 8, 25
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			ctx := context.Background()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d/k%d", w, i)
				if _, err := n.client.Put(ctx, key, strings.NewReader("v"), false); err != nil {
					errs <- err
					return
				}
				// Ping-pong a shared key between two names from every worker.
				_, _ = n.client.Move(ctx, "shared/a", "shared/b", true)
				_, _ = n.client.Move(ctx, "shared/b", "shared/a", true)
			}
			errs <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		require.NoError(t, <-errs)
	}

	stats, err := n.client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, stats.Keys)

	resp, err := http.Get(n.http.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
