package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/internal/telemetry/metric"
)

// Limiter decides whether a client may run another command.
type Limiter interface {
	Allow(client string) bool
}

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// Password enables AUTH. Empty means every connection is trusted.
	Password string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands.
	IdleTimeout time.Duration
	// Limiter throttles commands per client IP. Nil disables it.
	Limiter Limiter
	// Metrics records one request per command. Nil disables it.
	Metrics *metric.Registry
	// Limits bounds each request. Zero fields take DefaultLimits values.
	Limits Limits
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:6380",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		Limits:       DefaultLimits(),
	}
}

// Server accepts RESP connections and runs their commands against a
// KVService.
type Server struct {
	cfg     Config
	handler *CommandHandler
	log     logger.Logger

	// ctx is the parent of every connection context. Shutdown cancels it
	// once connections are done or it stops waiting for them.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*Conn]struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn is one client connection.
type Conn struct {
	netConn net.Conn
	in      decoder
	out     encoder

	// ctx ends when the connection closes. Commands run under it.
	ctx    context.Context
	cancel context.CancelFunc

	// authenticated is only touched by the connection's goroutine.
	authenticated bool
	closed        atomic.Bool
}

func newConn(parent context.Context, c net.Conn, lim Limits, authenticated bool) *Conn {
	ctx, cancel := context.WithCancel(parent)
	return &Conn{
		netConn:       c,
		in:            decoder{r: bufio.NewReader(c), lim: lim},
		out:           encoder{bufio.NewWriter(c)},
		ctx:           ctx,
		cancel:        cancel,
		authenticated: authenticated,
	}
}

// Close closes the connection and cancels its context. Further calls are
// no-ops.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a RESP server. Zero timeouts take the DefaultConfig values.
func New(cfg Config, kv *service.KVService, log logger.Logger) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.Limits.MaxArgs <= 0 {
		cfg.Limits.MaxArgs = def.Limits.MaxArgs
	}
	if cfg.Limits.MaxBulk <= 0 {
		cfg.Limits.MaxBulk = def.Limits.MaxBulk
	}
	if cfg.Limits.MaxInline <= 0 {
		cfg.Limits.MaxInline = def.Limits.MaxInline
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "resp")

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		handler: NewCommandHandler(kv, cfg, log),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[*Conn]struct{}),
	}
}

// ListenAndServe listens on cfg.Addr and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)
	s.log.Info("RESP server listening", "addr", ln.Addr().String())

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		conn := newConn(s.ctx, c, s.cfg.Limits, s.cfg.Password == "")
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.serveConn(conn)
		}()
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections, closes idle ones and waits for
// running commands to finish or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var closeErr error
	if s.ln != nil {
		closeErr = s.ln.Close()
	}
	// Unblocks readers waiting for the next command; a command in flight
	// still gets its reply written before the loop notices.
	for c := range s.conns {
		_ = c.netConn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		if errors.Is(closeErr, net.ErrClosed) {
			return nil
		}
		return closeErr
	case <-ctx.Done():
		s.cancel()
		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *Server) track(c *Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) serveConn(c *Conn) {
	defer c.Close()

	for s.running.Load() {
		// Between commands the connection may idle; once a command starts
		// it must arrive within ReadTimeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if !s.running.Load() {
			return
		}
		if _, err := c.in.r.Peek(1); err != nil {
			s.logReadError(c, err)
			return
		}
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := c.in.command()
		if err != nil {
			if errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrProtocol) {
				s.log.Warn("closing connection on bad request", "remote", c.RemoteAddr().String(), "error", err)
				_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				c.out.fail("ERR protocol error: " + err.Error())
				_ = c.out.Flush()
				return
			}
			s.logReadError(c, err)
			return
		}
		if len(args) == 0 {
			continue
		}

		s.handler.Handle(c, args)

		if c.closed.Load() {
			return
		}
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := c.out.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) logReadError(c *Conn, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &netErr) && netErr.Timeout():
		s.log.Debug("connection timed out", "remote", c.RemoteAddr().String())
	default:
		s.log.Debug("connection read error", "remote", c.RemoteAddr().String(), "error", err)
	}
}
