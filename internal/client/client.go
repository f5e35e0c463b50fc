// Package client is the engine-facing API over a running session: public
// request types in, public results out, with the wire messages kept behind
// small translation functions.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrUnexpectedReply = errors.New("client: unexpected reply type")

type Config struct {
	Endpoints     string
	Identity      string
	Domain        string
	ClientTimeout time.Duration
	// CancelOnTimeout sends a best-effort cancel for calls that time out or
	// are cancelled locally.
	CancelOnTimeout bool
	// RetryReads resends idempotent reads that time out, as new attempts.
	RetryReads        bool
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	Backoff           session.BackoffConfig
}

func DefaultConfig() Config {
	sc := session.DefaultConfig()
	return Config{
		Identity:          "proxywire",
		ClientTimeout:     30 * time.Second,
		CancelOnTimeout:   true,
		RetryReads:        true,
		HeartbeatInterval: sc.HeartbeatInterval,
		HeartbeatTimeout:  sc.HeartbeatTimeout,
		Backoff:           sc.Backoff,
	}
}

type Client struct {
	sess *session.Session
	cfg  Config
	log  zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(sess *session.Session, cfg Config) *Client {
	d := DefaultConfig()
	if strings.TrimSpace(cfg.Identity) == "" {
		cfg.Identity = d.Identity
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = d.HeartbeatInterval
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if cfg.Backoff.InitialDelay == 0 && cfg.Backoff.MaxDelay == 0 {
		cfg.Backoff = d.Backoff
	}
	c := &Client{
		sess: sess,
		cfg:  cfg,
		log:  log.With().Str("component", "client").Str("session_id", sess.ID()).Logger(),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	_ = c.OnLog(c.logToZerolog)
	return c
}

func (c *Client) Session() *session.Session { return c.sess }

// call sends req and returns the typed reply. A reply carrying an Error
// property is returned alongside that error as *protocol.RemoteError.
func call[R protocol.Reply](ctx context.Context, c *Client, req protocol.Request, opts ...session.CallOption) (R, error) {
	var zero R
	reply, err := c.sess.Call(ctx, req, opts...)
	if err != nil {
		if c.cfg.CancelOnTimeout && (errors.Is(err, protocol.ErrTimeout) || errors.Is(err, protocol.ErrCanceled)) {
			c.cancelRemote(req)
		}
		return zero, err
	}
	typed, ok := reply.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnexpectedReply, reply.Type())
	}
	if remote := reply.RemoteError(); remote != nil {
		return typed, remote
	}
	return typed, nil
}

// read is call for idempotent requests: a timed out attempt is resent as a
// new attempt with a fresh request id, up to Backoff.MaxAttempts.
func read[R protocol.Reply](ctx context.Context, c *Client, req protocol.Request, opts ...session.CallOption) (R, error) {
	attempts := c.cfg.Backoff.MaxAttempts
	if !c.cfg.RetryReads || attempts < 1 {
		attempts = 1
	}
	var (
		reply R
		err   error
	)
	for attempt := 1; ; attempt++ {
		reply, err = call[R](ctx, c, req, opts...)
		if err == nil || !errors.Is(err, protocol.ErrTimeout) || attempt >= attempts {
			return reply, err
		}
		next, cloneErr := protocol.CloneRequest(req, protocol.NewAttempt)
		if cloneErr != nil {
			return reply, cloneErr
		}
		req = next
		delay := c.backoff(attempt)
		c.log.Debug().Str("type", req.Type().String()).Int("attempt", attempt).Dur("delay", delay).Msg("retrying read")
		if session.SleepContext(ctx, delay) != nil {
			return reply, err
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return session.NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
}

// cancelRemote asks the proxy to abandon req. Failures are only logged.
func (c *Client) cancelRemote(req protocol.Request) {
	if req.Type() == messages.TagCancelRequest || req.Type() == messages.TagTerminateRequest {
		return
	}
	if c.sess.State() != session.StateRunning {
		return
	}
	target := req.RequestID()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HeartbeatTimeout)
		defer cancel()
		reply, err := c.sess.Call(ctx, &messages.CancelRequest{TargetRequestID: target})
		if err != nil {
			c.log.Debug().Err(err).Int64("target", target).Msg("cancel not delivered")
			return
		}
		if cr, ok := reply.(*messages.CancelReply); ok {
			c.log.Debug().Int64("target", target).Bool("was_cancelled", cr.WasCancelled).Msg("cancel acknowledged")
		}
	}()
}

// Connect tells the proxy which cluster and default domain to use.
func (c *Client) Connect(ctx context.Context) error {
	_, err := call[*messages.ConnectReply](ctx, c, &messages.ConnectRequest{
		Endpoints:       c.cfg.Endpoints,
		Identity:        c.cfg.Identity,
		Domain:          c.cfg.Domain,
		ClientTimeoutMS: c.cfg.ClientTimeout.Milliseconds(),
	})
	return err
}

// Terminate asks the proxy to shut down. The session drains afterwards.
func (c *Client) Terminate(ctx context.Context) error {
	_, err := call[*messages.TerminateReply](ctx, c, &messages.TerminateRequest{})
	return err
}

// Ping round-trips a heartbeat and returns the elapsed time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := call[*messages.HeartbeatReply](ctx, c, &messages.HeartbeatRequest{}, session.WithTimeout(c.cfg.HeartbeatTimeout))
	return time.Since(start), err
}

func (c *Client) DescribeDomain(ctx context.Context, name string) (DomainInfo, error) {
	return c.describeDomain(ctx, &messages.DomainDescribeRequest{Name: &name})
}

func (c *Client) DescribeDomainByUUID(ctx context.Context, uuid string) (DomainInfo, error) {
	return c.describeDomain(ctx, &messages.DomainDescribeRequest{UUID: &uuid})
}

func (c *Client) describeDomain(ctx context.Context, req *messages.DomainDescribeRequest) (DomainInfo, error) {
	reply, err := read[*messages.DomainDescribeReply](ctx, c, req)
	if err != nil {
		return DomainInfo{}, err
	}
	return fromDomainDescribe(reply), nil
}

func (c *Client) RegisterDomain(ctx context.Context, in RegisterDomainInput) error {
	_, err := call[*messages.DomainRegisterReply](ctx, c, toDomainRegister(in))
	return err
}
