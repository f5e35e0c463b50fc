// Package transport opens the byte stream a session runs on: TCP, unix
// socket, or websocket, optionally under TLS. It knows nothing about
// messages.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	NetworkTCP       = "tcp"
	NetworkUnix      = "unix"
	NetworkWebSocket = "ws"
	NetworkWSS       = "wss"

	DefaultWebSocketPath = "/proxy"
)

var (
	ErrAddressRequired    = errors.New("transport: address required")
	ErrUnsupportedNetwork = errors.New("transport: unsupported network")
)

type Config struct {
	Network      string       `toml:"network"`
	Address      string       `toml:"address"`
	Path         string       `toml:"path"`
	SecurityMode SecurityMode `toml:"security_mode"`
	TLS          TLSConfig    `toml:"tls"`

	ConnectTimeout     time.Duration         `toml:"-"`
	HandshakeTimeout   time.Duration         `toml:"-"`
	MaxConnectAttempts int                   `toml:"max_connect_attempts"`
	Backoff            session.BackoffConfig `toml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Network:            NetworkTCP,
		Address:            "127.0.0.1:5000",
		Path:               DefaultWebSocketPath,
		SecurityMode:       SecurityModeDevelopment,
		ConnectTimeout:     5 * time.Second,
		HandshakeTimeout:   5 * time.Second,
		MaxConnectAttempts: 5,
		Backoff:            session.DefaultConfig().Backoff,
	}
}

// WithDefaults fills empty fields from DefaultConfig. wss implies TLS.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	c.Network = strings.ToLower(strings.TrimSpace(c.Network))
	if c.Network == "" {
		c.Network = d.Network
	}
	if c.Network == NetworkWSS {
		c.TLS.Enabled = true
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = d.Path
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.Backoff.InitialDelay == 0 && c.Backoff.MaxDelay == 0 {
		c.Backoff = d.Backoff
	}
	return c
}

func (c Config) validateNetwork() error {
	switch c.Network {
	case NetworkTCP, NetworkUnix, NetworkWebSocket, NetworkWSS:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedNetwork, c.Network)
	}
	if strings.TrimSpace(c.Address) == "" {
		return ErrAddressRequired
	}
	return nil
}

// URL is the websocket endpoint for ws and wss networks.
func (c Config) URL() string {
	return fmt.Sprintf("%s://%s%s", c.Network, c.Address, c.Path)
}

// Dial connects, retrying with backoff until MaxConnectAttempts is reached
// (zero retries forever) or ctx ends.
func Dial(ctx context.Context, cfg Config) (net.Conn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.validateNetwork(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	logger := log.With().Str("component", "transport").Str("network", cfg.Network).Str("addr", cfg.Address).Logger()

	var attempt int
	for {
		attempt++
		conn, err := dialOnce(ctx, cfg)
		if err == nil {
			logger.Debug().Int("attempt", attempt).Msg("connected")
			return conn, nil
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("dial failed")
		if cfg.MaxConnectAttempts > 0 && attempt >= cfg.MaxConnectAttempts {
			return nil, fmt.Errorf("transport: dial %s after %d attempts: %w", cfg.Address, attempt, err)
		}
		if err := sleepBackoff(ctx, cfg.Backoff, attempt, rng); err != nil {
			return nil, err
		}
	}
}

func dialOnce(ctx context.Context, cfg Config) (net.Conn, error) {
	switch cfg.Network {
	case NetworkWebSocket, NetworkWSS:
		return dialWebSocket(ctx, cfg)
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, cfg.Network, cfg.Address)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := cfg.clientTLSConfig()
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func dialWebSocket(ctx context.Context, cfg Config) (net.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		NetDialContext:   (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}
	if cfg.TLS.Enabled {
		tlsCfg, err := cfg.clientTLSConfig()
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}
	ws, resp, err := dialer.DialContext(ctx, cfg.URL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return NewWebSocketConn(ws), nil
}

func sleepBackoff(ctx context.Context, cfg session.BackoffConfig, attempt int, rng *rand.Rand) error {
	return session.SleepContext(ctx, session.NextBackoffDelay(cfg, attempt, rng))
}
