package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	KindBridge   = "bridge"
	KindProxySim = "proxysim"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindBridge:
		return bridgeTemplate, nil
	case KindProxySim:
		return proxySimTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Validate loads path as the given kind and reports the first problem.
func Validate(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindBridge:
		_, err := LoadBridgeConfig(path)
		return err
	case KindProxySim:
		_, err := LoadProxySimConfig(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}

const bridgeTemplate = `[proxy]
network = "tcp"
address = "127.0.0.1:5000"
path = "/proxy"
security_mode = "development"
connect_timeout_ms = 5000
max_connect_attempts = 5

[proxy.tls]
enabled = false
mutual = false
cert_file = ""
key_file = ""
ca_file = ""

[session]
call_timeout_ms = 30000
drain_timeout_ms = 15000
write_timeout_ms = 10000
heartbeat_interval_ms = 5000
heartbeat_timeout_ms = 5000

[client]
identity = "bridgectl"
domain = "samples"
endpoints = ""
client_timeout_ms = 30000
cancel_on_timeout = true
retry_reads = true

[admin]
addr = "127.0.0.1:7070"
cors_origins = ["http://localhost:3000"]
token = ""

[tracing]
enabled = false
endpoint = "http://localhost:4318/v1/traces"
service_name = "bridgectl"

[log]
level = "info"
json = false
`

const proxySimTemplate = `announce_connect = true

[listen]
network = "tcp"
address = "127.0.0.1:5000"
path = "/proxy"
security_mode = "development"

[session]
call_timeout_ms = 30000
drain_timeout_ms = 15000

[admin]
addr = "127.0.0.1:7071"

[log]
level = "info"

[[domains]]
name = "samples"
description = "sample workflows"
owner_email = "dev@localhost"
`
