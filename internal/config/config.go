// Package config loads the TOML files for bridgectl and proxysim. Files are
// decoded over the defaults, then PROXYWIRE_* environment variables are
// applied on top, then the result is validated.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/danmuck/proxywire/internal/observability"
	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/transport"
	"github.com/pelletier/go-toml/v2"
)

const EnvPrefix = "PROXYWIRE_"

var ErrInvalidConfig = errors.New("config: invalid")

// ProxyConfig describes the connection to (or, for proxysim, the listener
// of) the proxy.
type ProxyConfig struct {
	Network            string              `toml:"network" env:"NETWORK"`
	Address            string              `toml:"address" env:"ADDRESS"`
	Path               string              `toml:"path" env:"PATH"`
	SecurityMode       string              `toml:"security_mode" env:"SECURITY_MODE"`
	TLS                transport.TLSConfig `toml:"tls"`
	ConnectTimeoutMS   int                 `toml:"connect_timeout_ms" env:"CONNECT_TIMEOUT_MS"`
	MaxConnectAttempts int                 `toml:"max_connect_attempts" env:"MAX_CONNECT_ATTEMPTS"`
}

// SessionConfig holds session timings in milliseconds. A negative value
// disables the timeout.
type SessionConfig struct {
	CallTimeoutMS       int    `toml:"call_timeout_ms" env:"CALL_TIMEOUT_MS"`
	DrainTimeoutMS      int    `toml:"drain_timeout_ms" env:"DRAIN_TIMEOUT_MS"`
	WriteTimeoutMS      int    `toml:"write_timeout_ms" env:"WRITE_TIMEOUT_MS"`
	MaxFrameBytes       uint32 `toml:"max_frame_bytes" env:"MAX_FRAME_BYTES"`
	HeartbeatIntervalMS int    `toml:"heartbeat_interval_ms" env:"HEARTBEAT_INTERVAL_MS"`
	HeartbeatTimeoutMS  int    `toml:"heartbeat_timeout_ms" env:"HEARTBEAT_TIMEOUT_MS"`
}

type ClientConfig struct {
	Endpoints       string `toml:"endpoints" env:"ENDPOINTS"`
	Identity        string `toml:"identity" env:"IDENTITY"`
	Domain          string `toml:"domain" env:"DOMAIN"`
	ClientTimeoutMS int    `toml:"client_timeout_ms" env:"TIMEOUT_MS"`
	CancelOnTimeout bool   `toml:"cancel_on_timeout" env:"CANCEL_ON_TIMEOUT"`
	RetryReads      bool   `toml:"retry_reads" env:"RETRY_READS"`
}

type AdminConfig struct {
	Addr        string   `toml:"addr" env:"ADDR"`
	CorsOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS"`
	Token       string   `toml:"token" env:"TOKEN"`
}

type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
	JSON  bool   `toml:"json" env:"JSON"`
}

type BridgeConfig struct {
	Proxy   ProxyConfig                 `toml:"proxy" envPrefix:"PROXY_"`
	Session SessionConfig               `toml:"session" envPrefix:"SESSION_"`
	Client  ClientConfig                `toml:"client" envPrefix:"CLIENT_"`
	Admin   AdminConfig                 `toml:"admin" envPrefix:"ADMIN_"`
	Tracing observability.TracingConfig `toml:"tracing" envPrefix:"TRACING_"`
	Log     LogConfig                   `toml:"log" envPrefix:"LOG_"`
}

type ProxySimConfig struct {
	Listen          ProxyConfig                 `toml:"listen" envPrefix:"LISTEN_"`
	Session         SessionConfig               `toml:"session" envPrefix:"SESSION_"`
	AnnounceConnect bool                        `toml:"announce_connect" env:"ANNOUNCE_CONNECT"`
	Domains         []proxysim.DomainSeed       `toml:"domains"`
	Admin           AdminConfig                 `toml:"admin" envPrefix:"ADMIN_"`
	Tracing         observability.TracingConfig `toml:"tracing" envPrefix:"TRACING_"`
	Log             LogConfig                   `toml:"log" envPrefix:"LOG_"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Proxy: ProxyConfig{
			Network:            transport.NetworkTCP,
			Address:            "127.0.0.1:5000",
			SecurityMode:       string(transport.SecurityModeDevelopment),
			ConnectTimeoutMS:   5000,
			MaxConnectAttempts: 5,
		},
		Session: DefaultSessionConfig(),
		Client: ClientConfig{
			Identity:        "bridgectl",
			ClientTimeoutMS: 30000,
			CancelOnTimeout: true,
			RetryReads:      true,
		},
		Admin: AdminConfig{Addr: "127.0.0.1:7070"},
		Log:   LogConfig{Level: "info"},
	}
}

func DefaultProxySimConfig() ProxySimConfig {
	return ProxySimConfig{
		Listen: ProxyConfig{
			Network:      transport.NetworkTCP,
			Address:      "127.0.0.1:5000",
			SecurityMode: string(transport.SecurityModeDevelopment),
		},
		Session:         DefaultSessionConfig(),
		AnnounceConnect: true,
		Log:             LogConfig{Level: "info"},
	}
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CallTimeoutMS:       30000,
		DrainTimeoutMS:      15000,
		WriteTimeoutMS:      10000,
		HeartbeatIntervalMS: 5000,
		HeartbeatTimeoutMS:  5000,
	}
}

func LoadBridgeConfig(path string) (BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if err := loadToml(path, &cfg); err != nil {
		return BridgeConfig{}, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return BridgeConfig{}, err
	}
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func LoadProxySimConfig(path string) (ProxySimConfig, error) {
	cfg := DefaultProxySimConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ProxySimConfig{}, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return ProxySimConfig{}, err
	}
	if err := ValidateProxySimConfig(cfg); err != nil {
		return ProxySimConfig{}, err
	}
	return cfg, nil
}

// loadToml decodes path over the values already in out; keys absent from
// the file keep their defaults.
func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv overlays PROXYWIRE_* environment variables onto target.
func ApplyEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config parse env: %w", err)
	}
	return nil
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if err := ValidateProxyConfig(cfg.Proxy, false); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := ValidateSessionConfig(cfg.Session); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if strings.TrimSpace(cfg.Client.Identity) == "" {
		return fmt.Errorf("%w: client identity is required", ErrInvalidConfig)
	}
	if cfg.Client.ClientTimeoutMS < 0 {
		return fmt.Errorf("%w: client_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

func ValidateProxySimConfig(cfg ProxySimConfig) error {
	if err := ValidateProxyConfig(cfg.Listen, true); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if err := ValidateSessionConfig(cfg.Session); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	seen := make(map[string]struct{}, len(cfg.Domains))
	for i, d := range cfg.Domains {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("domains[%d]: %w: name is required", i, ErrInvalidConfig)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("domains[%d]: %w: duplicate domain %q", i, ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// ValidateProxyConfig checks the network and the TLS settings for the side
// of the connection the config is used on.
func ValidateProxyConfig(cfg ProxyConfig, server bool) error {
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	tc := cfg.Transport()
	switch tc.Network {
	case transport.NetworkTCP, transport.NetworkUnix, transport.NetworkWebSocket, transport.NetworkWSS:
	default:
		return fmt.Errorf("%w: %q", transport.ErrUnsupportedNetwork, cfg.Network)
	}
	if server {
		return tc.ValidateServer()
	}
	return tc.ValidateClient()
}

func ValidateSessionConfig(cfg SessionConfig) error {
	if cfg.MaxFrameBytes != 0 && cfg.MaxFrameBytes < 64 {
		return fmt.Errorf("%w: max_frame_bytes must be at least 64", ErrInvalidConfig)
	}
	if cfg.HeartbeatIntervalMS > 0 && cfg.HeartbeatTimeoutMS > cfg.HeartbeatIntervalMS*10 {
		return fmt.Errorf("%w: heartbeat_timeout_ms is too large for heartbeat_interval_ms", ErrInvalidConfig)
	}
	return nil
}
