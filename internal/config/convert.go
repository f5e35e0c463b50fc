package config

import (
	"time"

	"github.com/danmuck/proxywire/internal/client"
	"github.com/danmuck/proxywire/internal/logging"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/transport"
)

func (c ProxyConfig) Transport() transport.Config {
	out := transport.Config{
		Network:            c.Network,
		Address:            c.Address,
		Path:               c.Path,
		SecurityMode:       transport.SecurityMode(c.SecurityMode),
		TLS:                c.TLS,
		ConnectTimeout:     millis(c.ConnectTimeoutMS),
		MaxConnectAttempts: c.MaxConnectAttempts,
	}
	return out.WithDefaults()
}

func (c SessionConfig) Session() session.Config {
	return session.Config{
		DefaultCallTimeout: millis(c.CallTimeoutMS),
		DrainTimeout:       millis(c.DrainTimeoutMS),
		WriteTimeout:       millis(c.WriteTimeoutMS),
		MaxFrameBytes:      c.MaxFrameBytes,
		HeartbeatInterval:  millis(c.HeartbeatIntervalMS),
		HeartbeatTimeout:   millis(c.HeartbeatTimeoutMS),
	}.WithDefaults()
}

// ClientConfig combines the client section with the session heartbeat
// settings the client loop runs on.
func (c BridgeConfig) ClientConfig() client.Config {
	sess := c.Session.Session()
	return client.Config{
		Endpoints:         c.Client.Endpoints,
		Identity:          c.Client.Identity,
		Domain:            c.Client.Domain,
		ClientTimeout:     millis(c.Client.ClientTimeoutMS),
		CancelOnTimeout:   c.Client.CancelOnTimeout,
		RetryReads:        c.Client.RetryReads,
		HeartbeatInterval: sess.HeartbeatInterval,
		HeartbeatTimeout:  sess.HeartbeatTimeout,
		Backoff:           sess.Backoff,
	}
}

func (c ProxySimConfig) Simulator() proxysim.Config {
	return proxysim.Config{
		Domains:         append([]proxysim.DomainSeed(nil), c.Domains...),
		Session:         c.Session.Session(),
		AnnounceConnect: c.AnnounceConnect,
	}
}

// Logging resolves the log section onto the runtime logging defaults.
func (c LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Level); ok {
		cfg.Level = lvl
	}
	cfg.Bypass = c.JSON
	cfg.File.Path = c.File
	return cfg
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
