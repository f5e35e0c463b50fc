// Package proxysim is an in-memory stand-in for the workflow proxy. It runs
// the same session engine in the opposite role: it answers client requests
// from local state and pushes workflow and activity invocations back to the
// client that started them.
package proxysim

import (
	"context"
	"errors"
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Domains are registered at startup.
	Domains []DomainSeed
	Session session.Config
	// AnnounceConnect sends a log notification to clients after Connect.
	AnnounceConnect bool
}

type DomainSeed struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	OwnerEmail  string `toml:"owner_email"`
}

type Simulator struct {
	cfg Config
	reg *protocol.Registry
	log zerolog.Logger

	nextContext atomic.Int64

	mu         sync.Mutex
	domains    map[string]*domainRecord
	workflows  map[workflowKey]*workflowRecord
	contexts   map[int64]*workflowRecord
	versions   map[contextKey]int64
	mutables   map[contextKey][]byte
	activities map[string]*activityRecord
	heartbeats map[int64][]byte
	inflight   map[inflightKey]context.CancelFunc
	sessions   map[string]*session.Session
	cacheSize  int64
}

type domainRecord struct {
	messages.DomainDescribeReply
	retentionDays int64
}

type workflowKey struct {
	domain string
	id     string
}

type contextKey struct {
	contextID int64
	name      string
}

type inflightKey struct {
	session   string
	requestID int64
}

func New(cfg Config) *Simulator {
	s := &Simulator{
		cfg:        cfg,
		reg:        messages.Registry(),
		log:        log.With().Str("component", "proxysim").Logger(),
		domains:    make(map[string]*domainRecord),
		workflows:  make(map[workflowKey]*workflowRecord),
		contexts:   make(map[int64]*workflowRecord),
		versions:   make(map[contextKey]int64),
		mutables:   make(map[contextKey][]byte),
		activities: make(map[string]*activityRecord),
		heartbeats: make(map[int64][]byte),
		inflight:   make(map[inflightKey]context.CancelFunc),
		sessions:   make(map[string]*session.Session),
	}
	for _, d := range cfg.Domains {
		if _, err := s.registerDomain(d.Name, d.Description, d.OwnerEmail, 0); err != nil {
			s.log.Warn().Err(err).Str("domain", d.Name).Msg("skipping seed domain")
		}
	}
	return s
}

// Attach starts a proxy-side session on conn and returns it running.
func (s *Simulator) Attach(conn io.ReadWriteCloser) (*session.Session, error) {
	sess := session.New(conn, s.reg, s.cfg.Session)
	id := sess.ID()
	if err := s.register(sess); err != nil {
		_ = sess.Close()
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	go func() {
		<-sess.Done()
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.log.Info().Str("session_id", id).Msg("client session ended")
	}()
	return sess, nil
}

// Serve accepts client connections until ctx ends, then closes every
// session it started.
func (s *Simulator) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		if _, err := s.Attach(conn); err != nil {
			s.log.Warn().Err(err).Msg("attach failed")
			_ = conn.Close()
		}
	}
}

func (s *Simulator) closeAll() {
	s.mu.Lock()
	list := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()
	for _, sess := range list {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = sess.Drain(ctx)
		cancel()
	}
}

// Sessions returns the number of attached client sessions.
func (s *Simulator) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionList returns the attached client sessions ordered by id.
func (s *Simulator) SessionList() []*session.Session {
	s.mu.Lock()
	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// CacheSize returns the workflow cache size last set by a client.
func (s *Simulator) CacheSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheSize
}

// Domains returns the registered domain names in order.
func (s *Simulator) Domains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.domains))
	for name := range s.domains {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Simulator) newContextID() int64 {
	return s.nextContext.Add(1)
}

// track makes a long-running handler cancellable by a cancel request naming
// its request id.
func (s *Simulator) track(ctx context.Context, sess *session.Session, requestID int64) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	key := inflightKey{session: sess.ID(), requestID: requestID}
	s.mu.Lock()
	s.inflight[key] = cancel
	s.mu.Unlock()
	return ctx, func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		cancel()
	}
}

func (s *Simulator) cancelInflight(sess *session.Session, requestID int64) bool {
	key := inflightKey{session: sess.ID(), requestID: requestID}
	s.mu.Lock()
	cancel, ok := s.inflight[key]
	delete(s.inflight, key)
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
