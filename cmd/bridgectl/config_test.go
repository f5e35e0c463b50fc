package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/transport"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadBridgeConfigDefaultsAndOverrides(t *testing.T) {
	base := writeTemp(t, "config.toml", `
[proxy]
address = "proxy.internal:7933"

[client]
domain = "orders"
identity = "worker-a"
`)
	override := writeTemp(t, "override.toml", `
proxy_address = "127.0.0.1:7933"
domain = "billing"
admin_addr = ""
log_level = "debug"
call_timeout_ms = 1500
`)

	cfg, err := loadBridgeConfig(base, override)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Proxy.Address != "127.0.0.1:7933" {
		t.Fatalf("unexpected proxy address: %q", cfg.Proxy.Address)
	}
	if cfg.Client.Domain != "billing" {
		t.Fatalf("unexpected domain: %q", cfg.Client.Domain)
	}
	if cfg.Client.Identity != "worker-a" {
		t.Fatalf("identity not kept from base config: %q", cfg.Client.Identity)
	}
	if cfg.Admin.Addr != "" {
		t.Fatalf("expected admin disabled, got %q", cfg.Admin.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
	if got := cfg.Session.Session().DefaultCallTimeout.Milliseconds(); got != 1500 {
		t.Fatalf("unexpected call timeout: %dms", got)
	}
}

func TestLoadBridgeConfigWithoutFile(t *testing.T) {
	t.Setenv("PROXYWIRE_CLIENT_DOMAIN", "from-env")
	cfg, err := loadBridgeConfig("", "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Client.Domain != "from-env" {
		t.Fatalf("env override not applied: %q", cfg.Client.Domain)
	}
	if cfg.Proxy.Address == "" {
		t.Fatalf("expected default proxy address")
	}
}

func TestOverrideRejectsUnknownKey(t *testing.T) {
	override := writeTemp(t, "override.toml", `proxy_adress = "typo:1"`)
	if _, err := loadBridgeConfig("", override); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestOverrideProductionRequiresTLS(t *testing.T) {
	override := writeTemp(t, "override.toml", `security_mode = "production"`)
	_, err := loadBridgeConfig("", override)
	if !errors.Is(err, transport.ErrTLSRequired) {
		t.Fatalf("expected tls required, got %v", err)
	}
}

func TestRunUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"describe-domain"},
		{"get-result", "samples"},
		{"frobnicate"},
	} {
		var stdout, stderr bytes.Buffer
		err := run(args, &stdout, &stderr)
		if !errors.Is(err, errUsage) {
			t.Fatalf("%v: expected usage error, got %v", args, err)
		}
		if !strings.Contains(stderr.String(), "usage: bridgectl") {
			t.Fatalf("%v: usage not printed", args)
		}
	}
}

func TestRunAgainstSimulator(t *testing.T) {
	sim := proxysim.New(proxysim.Config{Domains: []proxysim.DomainSeed{{Name: "samples", Description: "sample workflows"}}})
	ln, err := transport.Listen(transport.Config{Network: transport.NetworkTCP, Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sim.Serve(ctx, ln) }()

	override := writeTemp(t, "override.toml", `
proxy_address = "`+ln.Addr().String()+`"
admin_addr = ""
max_connect_attempts = 1
`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-override", override, "ping"}, &stdout, &stderr); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "pong rtt=") {
		t.Fatalf("unexpected ping output: %q", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"-override", override, "describe-domain", "samples"}, &stdout, &stderr); err != nil {
		t.Fatalf("describe-domain: %v", err)
	}
	if !strings.Contains(stdout.String(), `"Description": "sample workflows"`) {
		t.Fatalf("unexpected describe output: %s", stdout.String())
	}
}
