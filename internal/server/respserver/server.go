package respserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/notify"
	"github.com/yndnr/vaultlink-go/internal/telemetry/metric"
)

// Config holds the RESP endpoint configuration.
type Config struct {
	// Address is the listen address.
	Address string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply or push.
	WriteTimeout time.Duration
	// IdleTimeout closes connections without subscriptions that send nothing.
	IdleTimeout time.Duration
	// MaxSubscriptions limits rooms per connection.
	MaxSubscriptions int
	// CommandRate is the sustained commands per second per connection.
	// Zero disables limiting.
	CommandRate float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:          "127.0.0.1:6390",
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      5 * time.Minute,
		MaxSubscriptions: 64,
		CommandRate:      50,
	}
}

// Server serves notification rooms to RESP clients.
type Server struct {
	cfg     *Config
	hub     *notify.Hub
	metrics *metric.Registry
	logger  *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*conn]struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server over hub. metrics may be nil.
func New(cfg *Config, hub *notify.Hub, metrics *metric.Registry, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		conns:   make(map[*conn]struct{}),
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.Serve(ctx, ln)
	return nil
}

// Serve accepts connections on ln in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("resp server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("resp accept loop stopped", "error", err)
		}
	}()
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

// Shutdown stops accepting, closes every connection and waits for their
// goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		c := s.newConn(nc)
		s.mu.Lock()
		if !s.running.Load() {
			s.mu.Unlock()
			_ = nc.Close()
			continue
		}
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(c)
		}()
	}
}

// conn is one client connection. The read loop owns subs; writes from the
// read loop and the forwarders are serialized by wmu.
type conn struct {
	nc      net.Conn
	br      *bufio.Reader
	wmu     sync.Mutex
	w       *Writer
	limiter *rate.Limiter

	subs   map[string]*notify.Subscription
	fwd    sync.WaitGroup
	closed atomic.Bool
}

func (s *Server) newConn(nc net.Conn) *conn {
	c := &conn{
		nc:   nc,
		br:   bufio.NewReader(nc),
		w:    NewWriter(nc),
		subs: make(map[string]*notify.Subscription),
	}
	if s.cfg.CommandRate > 0 {
		burst := int(s.cfg.CommandRate)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.CommandRate), burst)
	}
	return c
}

func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.nc.Close()
	}
}

// write runs fn under the write lock and flushes.
func (c *conn) write(timeout time.Duration, fn func(w *Writer) error) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.nc.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if err := fn(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

func (s *Server) serveConn(c *conn) {
	if s.metrics != nil {
		s.metrics.RespConnections.Inc()
		defer s.metrics.RespConnections.Dec()
	}
	defer func() {
		for _, sub := range c.subs {
			sub.Close()
		}
		c.fwd.Wait()
		c.close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	for {
		// Subscribed connections may stay silent indefinitely.
		var idle time.Time
		if len(c.subs) == 0 {
			idle = time.Now().Add(s.cfg.IdleTimeout)
		}
		if err := c.nc.SetReadDeadline(idle); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadErr(c, err)
			return
		}

		if err := c.nc.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrProtocol) {
				s.logger.Warn("resp protocol error", "remote", c.nc.RemoteAddr().String(), "error", err)
				_ = c.write(s.cfg.WriteTimeout, func(w *Writer) error {
					return w.Error("ERR " + err.Error())
				})
			} else {
				s.logReadErr(c, err)
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			if err := c.write(s.cfg.WriteTimeout, func(w *Writer) error {
				return w.Error("ERR rate limit exceeded")
			}); err != nil {
				return
			}
			continue
		}

		if !s.handle(c, args) {
			return
		}
	}
}

func (s *Server) logReadErr(c *conn, err error) {
	if errors.Is(err, io.EOF) || c.closed.Load() {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("resp connection timed out", "remote", c.nc.RemoteAddr().String())
		return
	}
	s.logger.Debug("resp connection read error", "remote", c.nc.RemoteAddr().String(), "error", err)
}

// forward pushes a subscription's messages until it is closed.
func (s *Server) forward(c *conn, sub *notify.Subscription) {
	defer c.fwd.Done()
	for msg := range sub.C() {
		payload, err := encodeMessage(msg)
		if err != nil {
			s.logger.Error("encode notification", "room", sub.Room(), "error", err)
			continue
		}
		if err := c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.Message(sub.Room(), payload)
		}); err != nil {
			c.close()
			// Drain so the hub never sees this subscriber as slow.
			for range sub.C() {
			}
			return
		}
	}
}

func encodeMessage(msg *domain.Message) ([]byte, error) {
	return json.Marshal(msg)
}
