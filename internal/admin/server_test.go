package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/danmuck/proxywire/internal/testutil/mockproxy"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndReadyWithoutSession(t *testing.T) {
	testlog.Start(t)
	srv := New(Config{Node: "bridge-test"}, nil)

	rec := get(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "bridge-test", health["node"])
	assert.EqualValues(t, 0, health["sessions"])

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/ready").Code)
}

func TestSessionReportsPendingCalls(t *testing.T) {
	testlog.Start(t)
	conn, peer := mockproxy.New(t, messages.Registry())
	sess := session.New(conn, messages.Registry(), session.Config{})
	require.NoError(t, sess.Start())
	t.Cleanup(func() { _ = sess.Close() })

	srv := New(Config{Node: "bridge-test"}, func() []*session.Session { return []*session.Session{sess} })
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/ready").Code)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Call(context.Background(), &messages.HeartbeatRequest{})
		done <- err
	}()
	req := peer.ReadRequest()

	rec := get(t, srv.Handler(), "/session")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sessions []sessionView `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 1)
	got := body.Sessions[0]
	assert.Equal(t, sess.ID(), got.ID)
	assert.Equal(t, "running", got.State)
	require.Len(t, got.Pending, 1)
	assert.Equal(t, req.RequestID(), got.Pending[0].RequestID)
	assert.Equal(t, "HeartbeatRequest", got.Pending[0].RequestType)
	assert.Equal(t, "HeartbeatReply", got.Pending[0].ReplyType)

	peer.ReplyTo(req, &messages.HeartbeatReply{})
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("heartbeat call did not complete")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	testlog.Start(t)
	srv := New(Config{Node: "bridge-test"}, nil)
	_ = get(t, srv.Handler(), "/healthz")

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "proxywire_")
}

func TestServeStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(Config{Node: "bridge-test"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("admin server did not stop")
	}
}

func TestSessionRequiresToken(t *testing.T) {
	testlog.Start(t)
	srv := New(Config{Node: "bridge-test", Token: "s3cret"}, nil)
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.Handler(), "/session").Code)
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/healthz").Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
