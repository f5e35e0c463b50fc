package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/config"
	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
	"github.com/danmuck/proxywire/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSimulator(t *testing.T) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	sim := proxysim.New(proxysim.Config{Domains: []proxysim.DomainSeed{{Name: "samples", OwnerEmail: "dev@localhost"}}})
	ln, err := transport.Listen(transport.Config{Network: transport.NetworkTCP, Address: "127.0.0.1:0"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- sim.Serve(ctx, ln) }()
	t.Cleanup(cancel)
	return ln.Addr().String(), cancel, served
}

func testConfig(addr string) config.BridgeConfig {
	cfg := config.DefaultBridgeConfig()
	cfg.Proxy.Address = addr
	cfg.Proxy.MaxConnectAttempts = 1
	cfg.Client.Domain = "samples"
	cfg.Admin.Addr = ""
	return cfg
}

func waitForClient(t *testing.T, svc *Service) {
	t.Helper()
	require.Eventually(t, func() bool { return svc.Client() != nil }, 5*time.Second, 10*time.Millisecond)
}

func TestRunServesUntilCancelled(t *testing.T) {
	testlog.Start(t)
	addr, _, _ := startSimulator(t)
	svc := NewService(testConfig(addr))
	assert.Empty(t, svc.Sessions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	waitForClient(t, svc)

	info, err := svc.Client().DescribeDomain(context.Background(), "samples")
	require.NoError(t, err)
	assert.Equal(t, "dev@localhost", info.OwnerEmail)
	require.Len(t, svc.Sessions(), 1)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	<-svc.Sessions()[0].Done()
}

func TestRunReportsLostSession(t *testing.T) {
	testlog.Start(t)
	addr, stopSim, served := startSimulator(t)
	svc := NewService(testConfig(addr))

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	waitForClient(t, svc)

	stopSim()
	<-served
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrSessionEnded)
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not notice the lost session")
	}
}

func TestConnectFailsWithoutProxy(t *testing.T) {
	testlog.Start(t)
	ln, err := transport.Listen(transport.Config{Network: transport.NetworkTCP, Address: "127.0.0.1:0"})
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewService(testConfig(addr)).Connect(context.Background())
	require.Error(t, err)
}
