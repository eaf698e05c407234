package redisserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/storage/memory"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/internal/telemetry/metric"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

// stallingPersister blocks every write until its context ends.
type stallingPersister struct {
	entered chan struct{}
	exited  chan error
}

func newStallingPersister() *stallingPersister {
	return &stallingPersister{entered: make(chan struct{}, 1), exited: make(chan error, 1)}
}

func (p *stallingPersister) Apply(ctx context.Context, _ []domain.Mutation) error {
	p.entered <- struct{}{}
	<-ctx.Done()
	p.exited <- ctx.Err()
	return ctx.Err()
}

func (p *stallingPersister) Scan(context.Context, func(string, []byte) bool) error {
	return nil
}

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	store := memory.New(nil, sharded.WithShardCount(4))
	kv := service.NewKVService(store, service.WithLogger(logger.Discard()), service.WithMaxValueLen(16))
	srv := New(cfg, kv, logger.Discard())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.NoError(t, <-done)
	})
	return srv, ln.Addr().String()
}

// client speaks RESP arrays and decodes replies into Go values: string for
// status and bulk replies, int64, nil, []any, or error for error replies.
type client struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	return &client{t: t, conn: conn, br: bufio.NewReader(conn)}
}

func (c *client) do(args ...string) any {
	c.t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	_, err := io.WriteString(c.conn, b.String())
	require.NoError(c.t, err)

	v, err := c.read()
	require.NoError(c.t, err)
	return v
}

func (c *client) read() (any, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimSuffix(line, "\r\n")
	switch line[0] {
	case '+':
		return line[1:], nil
	case '-':
		return fmt.Errorf("%s", line[1:]), nil
	case ':':
		return strconv.ParseInt(line[1:], 10, 64)
	case '$':
		n, _ := strconv.Atoi(line[1:])
		if n < 0 {
			return nil, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(c.br, buf); err != nil {
			return nil, err
		}
		return string(buf[:n]), nil
	case '*':
		n, _ := strconv.Atoi(line[1:])
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := c.read()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("bad reply %q", line)
}

func errText(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return ""
}

func TestServer_Commands(t *testing.T) {
	reg := metric.NewRegistry()
	_, addr := startServer(t, Config{Metrics: reg})
	c := dial(t, addr)

	assert.Equal(t, "PONG", c.do("PING"))
	assert.Equal(t, "hello", c.do("PING", "hello"))
	assert.Equal(t, "x", c.do("ECHO", "x"))
	assert.Equal(t, []any{}, c.do("COMMAND"))

	assert.Nil(t, c.do("GET", "users/1"))
	assert.Equal(t, "OK", c.do("SET", "users/1", "ada"))
	assert.Equal(t, "ada", c.do("GET", "users/1"))
	assert.Equal(t, "OK", c.do("set", "users/2", ""))
	assert.Equal(t, "", c.do("GET", "users/2"))
	assert.Equal(t, "OK", c.do("SET", "orders/9", "v", "NOWAIT"))

	assert.Equal(t, int64(3), c.do("DBSIZE"))
	assert.Equal(t, int64(2), c.do("EXISTS", "users/1", "users/2", "nope"))
	assert.Equal(t, []any{"users/1", "users/2"}, c.do("KEYS", "users/*"))
	assert.Equal(t, []any{"orders/9", "users/1", "users/2"}, c.do("KEYS", "*"))
	assert.Equal(t, []any{"users/1"}, c.do("KEYS", "users/1"))
	assert.Contains(t, errText(c.do("KEYS", "u?ers/*")), "only 'prefix*'")

	assert.Equal(t, "OK", c.do("RENAME", "users/1", "users/3"))
	assert.Nil(t, c.do("GET", "users/1"))
	assert.Equal(t, int64(0), c.do("RENAMENX", "users/2", "users/3"))
	assert.Equal(t, int64(1), c.do("RENAMENX", "users/2", "users/4"))
	assert.Equal(t, "ERR no such key", errText(c.do("RENAME", "missing", "x")))

	assert.Equal(t, int64(2), c.do("DEL", "users/3", "users/4", "nope"))
	assert.Equal(t, int64(1), c.do("DBSIZE"))

	info, ok := c.do("INFO").(string)
	require.True(t, ok)
	assert.Contains(t, info, "keys:1\r\n")
	assert.Contains(t, info, "shards:4\r\n")

	assert.Equal(t, 4.0, testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("RESP", "GET", "ok")))
	c.do("FLUSHALL")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("RESP", "unknown", "err")))
}

func TestServer_Errors(t *testing.T) {
	_, addr := startServer(t, Config{})
	c := dial(t, addr)

	assert.Equal(t, "ERR unknown command 'flushall'", errText(c.do("FLUSHALL")))
	assert.Equal(t, "ERR wrong number of arguments for 'get' command", errText(c.do("GET")))
	assert.Equal(t, "ERR keys do not expire", errText(c.do("SET", "k", "v", "EX", "10")))
	assert.Equal(t, "ERR syntax error", errText(c.do("SET", "k", "v", "BOGUS")))
	assert.Equal(t, "ERR keys do not expire", errText(c.do("SET", "k", "v", "nowait", "px", "5")))
	assert.Equal(t, "OK", c.do("SET", "k", "v", "nowait"))
	assert.Contains(t, errText(c.do("SET", "k", strings.Repeat("v", 17))), "SKV-KEY-4002")
	assert.Contains(t, errText(c.do("GET", "")), "SKV-KEY-4001")
	assert.Contains(t, errText(c.do("AUTH", "pw")), "without any password")
}

func TestServer_Auth(t *testing.T) {
	_, addr := startServer(t, Config{Password: "hunter2"})
	c := dial(t, addr)

	assert.Equal(t, "PONG", c.do("PING"))
	assert.True(t, strings.HasPrefix(errText(c.do("GET", "k")), "NOAUTH"))
	assert.True(t, strings.HasPrefix(errText(c.do("AUTH", "wrong")), "WRONGPASS"))
	assert.Equal(t, "OK", c.do("AUTH", "default", "hunter2"))
	assert.Nil(t, c.do("GET", "k"))
}

func TestServer_RateLimited(t *testing.T) {
	_, addr := startServer(t, Config{Limiter: denyAll{}})
	c := dial(t, addr)

	assert.Equal(t, "PONG", c.do("PING"))
	assert.Contains(t, errText(c.do("GET", "k")), "SKV-SYS-4290")
}

func TestServer_QuitAndProtocolError(t *testing.T) {
	_, addr := startServer(t, Config{})

	c := dial(t, addr)
	assert.Equal(t, "OK", c.do("QUIT"))
	_, err := c.br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)

	c = dial(t, addr)
	_, err = io.WriteString(c.conn, "*1\r\n:1\r\n")
	require.NoError(t, err)
	v, err := c.read()
	require.NoError(t, err)
	assert.Contains(t, errText(v), "protocol error")
	_, err = c.br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_ShutdownClosesIdleConnections(t *testing.T) {
	store := memory.New(nil)
	srv := New(Config{}, service.NewKVService(store), logger.Discard())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	c := dial(t, ln.Addr().String())
	assert.Equal(t, "PONG", c.do("PING"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-done)

	_, err = c.br.ReadByte()
	assert.Error(t, err)
}

func TestServer_OversizedArgumentClosesConnection(t *testing.T) {
	_, addr := startServer(t, Config{Limits: Limits{MaxBulk: 32}})
	c := dial(t, addr)

	// Over the value limit but within the argument limit: a domain error.
	assert.Contains(t, errText(c.do("SET", "k", strings.Repeat("v", 20))), "SKV-KEY-4002")

	// Over the argument limit: the connection is dropped.
	_, err := io.WriteString(c.conn, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$40\r\n")
	require.NoError(t, err)
	v, err := c.read()
	require.NoError(t, err)
	assert.Contains(t, errText(v), "limit exceeded")
	_, err = c.br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_ShutdownCancelsRunningCommands(t *testing.T) {
	p := newStallingPersister()
	kv := service.NewKVService(memory.New(p, sharded.WithShardCount(4)), service.WithLogger(logger.Discard()))
	srv := New(Config{}, kv, logger.Discard())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	writer := dial(t, ln.Addr().String())
	_, err = io.WriteString(writer.conn, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n")
	require.NoError(t, err)
	select {
	case <-p.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("SET never reached the persister")
	}

	// The stalled SET holds the key's shard.
	other := dial(t, ln.Addr().String())
	assert.Contains(t, errText(other.do("SET", "k", "w", "NOWAIT")), "SKV-KEY-4230")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, srv.Shutdown(ctx), context.DeadlineExceeded)

	select {
	case err := <-p.exited:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("persist kept running after shutdown gave up")
	}
	require.NoError(t, <-done)
}
