// Package bridge runs the engine side of the connection as a process: it
// dials the proxy, keeps the session healthy and exposes it on the admin
// server.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/proxywire/internal/admin"
	"github.com/danmuck/proxywire/internal/client"
	"github.com/danmuck/proxywire/internal/config"
	"github.com/danmuck/proxywire/internal/observability"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/danmuck/proxywire/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrSessionEnded = errors.New("bridge: session ended")

type Service struct {
	cfg config.BridgeConfig
	log zerolog.Logger

	mu     sync.Mutex
	client *client.Client
}

func NewService(cfg config.BridgeConfig) *Service {
	return &Service{
		cfg: cfg,
		log: log.With().Str("component", "bridge").Logger(),
	}
}

// Connect dials the proxy, starts a session and sends the connect request.
// The returned client is also kept for Sessions and Close.
func (s *Service) Connect(ctx context.Context) (*client.Client, error) {
	conn, err := transport.Dial(ctx, s.cfg.Proxy.Transport())
	if err != nil {
		return nil, err
	}
	sess := session.New(conn, messages.Registry(), s.cfg.Session.Session())
	if err := sess.Start(); err != nil {
		_ = sess.Close()
		return nil, err
	}
	c := client.New(sess, s.cfg.ClientConfig())
	if err := c.Connect(ctx); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("bridge: connect: %w", err)
	}
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
	s.log.Info().
		Str("session_id", sess.ID()).
		Str("addr", s.cfg.Proxy.Address).
		Str("domain", s.cfg.Client.Domain).
		Msg("connected to proxy")
	return c, nil
}

// Client returns the connected client, or nil before Connect.
func (s *Service) Client() *client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Sessions reports the current session, if any, for the admin server.
func (s *Service) Sessions() []*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return []*session.Session{s.client.Session()}
}

// Run connects and blocks until ctx ends or the session is lost. A normal
// shutdown drains the session and returns nil.
func (s *Service) Run(ctx context.Context) error {
	shutdownTracing, err := observability.SetupTracing(ctx, s.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("bridge: tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	c, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	sess := c.Session()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.RunHeartbeat(gctx)
	})
	if addr := strings.TrimSpace(s.cfg.Admin.Addr); addr != "" {
		srv := admin.New(admin.Config{
			Node:        "bridge",
			Addr:        addr,
			CorsOrigins: s.cfg.Admin.CorsOrigins,
			Token:       s.cfg.Admin.Token,
		}, s.Sessions)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return s.drain(sess)
		case <-sess.Done():
			if ctx.Err() != nil {
				return nil
			}
			if err := sess.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSessionEnded, err)
			}
			return ErrSessionEnded
		}
	})
	return g.Wait()
}

// Close drains the current session, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	return s.drain(c.Session())
}

func (s *Service) drain(sess *session.Session) error {
	timeout := sess.Config().DrainTimeout
	if timeout <= 0 {
		timeout = session.DefaultConfig().DrainTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
	defer cancel()
	if err := sess.Drain(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID()).Msg("drain incomplete")
		return err
	}
	s.log.Info().Str("session_id", sess.ID()).Msg("session drained")
	return nil
}
