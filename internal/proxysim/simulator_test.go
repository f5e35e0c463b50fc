package proxysim

import (
	"context"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
	"github.com/danmuck/proxywire/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDomainsAreRegistered(t *testing.T) {
	testlog.Start(t)
	sim := New(Config{Domains: []DomainSeed{{Name: "b"}, {Name: "a"}, {Name: "a"}, {Name: ""}}})
	assert.Equal(t, []string{"a", "b"}, sim.Domains())
}

func dialSession(t *testing.T, cfg transport.Config) *session.Session {
	t.Helper()
	conn, err := transport.Dial(context.Background(), cfg)
	require.NoError(t, err)
	sess := session.New(conn, messages.Registry(), session.Config{})
	require.NoError(t, sess.Start())
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestServeOverTransports(t *testing.T) {
	for _, network := range []string{transport.NetworkTCP, transport.NetworkWebSocket} {
		t.Run(network, func(t *testing.T) {
			testlog.Start(t)
			sim := New(Config{Domains: []DomainSeed{{Name: "samples"}}})
			ln, err := transport.Listen(transport.Config{Network: network, Address: "127.0.0.1:0"})
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			served := make(chan error, 1)
			go func() { served <- sim.Serve(ctx, ln) }()

			sess := dialSession(t, transport.Config{Network: network, Address: ln.Addr().String()})
			name := "samples"
			reply, err := sess.Call(context.Background(), &messages.DomainDescribeRequest{Name: &name})
			require.NoError(t, err)
			desc := reply.(*messages.DomainDescribeReply)
			assert.Equal(t, "samples", desc.Name)
			assert.NotEmpty(t, desc.UUID)
			assert.Equal(t, 1, sim.Sessions())

			cancel()
			select {
			case err := <-served:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatalf("serve did not return")
			}
			select {
			case <-sess.Done():
			case <-time.After(5 * time.Second):
				t.Fatalf("client session not closed by shutdown")
			}
		})
	}
}

func TestGetVersionRejectsOutOfRange(t *testing.T) {
	testlog.Start(t)
	sim := New(Config{})
	req := &messages.WorkflowGetVersionRequest{ChangeID: "c", MinSupported: 0, MaxSupported: 1}
	req.ContextID = 4
	reply, err := sim.handleGetVersion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reply.(*messages.WorkflowGetVersionReply).Version)

	req.MinSupported, req.MaxSupported = 2, 3
	_, err = sim.handleGetVersion(context.Background(), req)
	var remote *protocol.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, protocol.RemoteErrorBadRequest, remote.Type)
}

func TestActivityCompleteUnknownToken(t *testing.T) {
	testlog.Start(t)
	sim := New(Config{})
	_, err := sim.handleActivityComplete(context.Background(), &messages.ActivityCompleteRequest{TaskToken: []byte("nope")})
	var remote *protocol.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, protocol.RemoteErrorNotFound, remote.Type)
}
