package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/proxywire/internal/config"
)

// bridgectl override file: flat keys laid over the loaded bridge config, for
// per-host tweaks that should not live in the shared config.
type overrideFile struct {
	ProxyNetwork       string `toml:"proxy_network"`
	ProxyAddress       string `toml:"proxy_address"`
	ProxyPath          string `toml:"proxy_path"`
	SecurityMode       string `toml:"security_mode"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	TLSMutual          bool   `toml:"tls_mutual"`
	TLSCertFile        string `toml:"tls_cert_file"`
	TLSKeyFile         string `toml:"tls_key_file"`
	TLSCAFile          string `toml:"tls_ca_file"`
	TLSServerName      string `toml:"tls_server_name"`
	Identity           string `toml:"identity"`
	Domain             string `toml:"domain"`
	CallTimeoutMS      int    `toml:"call_timeout_ms"`
	AdminAddr          string `toml:"admin_addr"`
	LogLevel           string `toml:"log_level"`
	TracingEndpoint    string `toml:"tracing_endpoint"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
}

// loadBridgeConfig reads the bridge config (defaults plus environment when
// path is empty) and applies the optional override file on top.
func loadBridgeConfig(path, overridePath string) (config.BridgeConfig, error) {
	var cfg config.BridgeConfig
	if strings.TrimSpace(path) == "" {
		cfg = config.DefaultBridgeConfig()
		if err := config.ApplyEnv(&cfg); err != nil {
			return config.BridgeConfig{}, err
		}
	} else {
		loaded, err := config.LoadBridgeConfig(path)
		if err != nil {
			return config.BridgeConfig{}, err
		}
		cfg = loaded
	}
	if strings.TrimSpace(overridePath) != "" {
		if err := applyOverrides(&cfg, overridePath); err != nil {
			return config.BridgeConfig{}, err
		}
	}
	if err := config.ValidateBridgeConfig(cfg); err != nil {
		return config.BridgeConfig{}, fmt.Errorf("load bridge config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.BridgeConfig, path string) error {
	var raw overrideFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load bridge overrides: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load bridge overrides: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("proxy_network") {
		cfg.Proxy.Network = strings.TrimSpace(raw.ProxyNetwork)
	}
	if meta.IsDefined("proxy_address") {
		cfg.Proxy.Address = strings.TrimSpace(raw.ProxyAddress)
	}
	if meta.IsDefined("proxy_path") {
		cfg.Proxy.Path = strings.TrimSpace(raw.ProxyPath)
	}
	if meta.IsDefined("security_mode") {
		cfg.Proxy.SecurityMode = strings.TrimSpace(raw.SecurityMode)
	}
	if meta.IsDefined("tls_enabled") {
		cfg.Proxy.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_mutual") {
		cfg.Proxy.TLS.Mutual = raw.TLSMutual
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.Proxy.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.Proxy.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("tls_ca_file") {
		cfg.Proxy.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("tls_server_name") {
		cfg.Proxy.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}
	if meta.IsDefined("identity") {
		cfg.Client.Identity = strings.TrimSpace(raw.Identity)
	}
	if meta.IsDefined("domain") {
		cfg.Client.Domain = strings.TrimSpace(raw.Domain)
	}
	if meta.IsDefined("call_timeout_ms") {
		cfg.Session.CallTimeoutMS = raw.CallTimeoutMS
	}
	if meta.IsDefined("admin_addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.Log.Level = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("tracing_endpoint") {
		cfg.Tracing.Endpoint = strings.TrimSpace(raw.TracingEndpoint)
		cfg.Tracing.Enabled = cfg.Tracing.Endpoint != ""
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Proxy.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	return nil
}
