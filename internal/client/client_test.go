package client

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/testutil/mockproxy"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() proxysim.Config {
	return proxysim.Config{
		Domains: []proxysim.DomainSeed{{Name: "samples", Description: "test domain"}},
	}
}

func startWithSim(t *testing.T, simCfg proxysim.Config, cfg Config) (*Client, *proxysim.Simulator) {
	t.Helper()
	sim := proxysim.New(simCfg)
	local, remote := net.Pipe()
	simSess, err := sim.Attach(remote)
	require.NoError(t, err)

	sess := session.New(local, messages.Registry(), session.Config{})
	c := New(sess, cfg)
	require.NoError(t, sess.Start())
	t.Cleanup(func() {
		_ = sess.Close()
		_ = simSess.Close()
	})
	return c, sim
}

func startWithMock(t *testing.T, sc session.Config, cfg Config) (*Client, *mockproxy.Peer) {
	t.Helper()
	reg := messages.Registry()
	local, peer := mockproxy.New(t, reg)
	sess := session.New(local, reg, sc)
	c := New(sess, cfg)
	require.NoError(t, sess.Start())
	t.Cleanup(func() { _ = sess.Close() })
	return c, peer
}

func samplesConfig() Config {
	cfg := DefaultConfig()
	cfg.Domain = "samples"
	cfg.Identity = "tester"
	return cfg
}

func requireRemote(t *testing.T, err error, errType string) *protocol.RemoteError {
	t.Helper()
	var remote *protocol.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, errType, remote.Type)
	return remote
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting")
		var zero T
		return zero
	}
}

func TestDomainLifecycle(t *testing.T) {
	testlog.Start(t)
	c, sim := startWithSim(t, proxysim.Config{}, samplesConfig())
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	_, err := c.DescribeDomain(ctx, "orders")
	requireRemote(t, err, protocol.RemoteErrorNotFound)

	require.NoError(t, c.RegisterDomain(ctx, RegisterDomainInput{
		Name:          "orders",
		Description:   "order workflows",
		OwnerEmail:    "ops@example.com",
		RetentionDays: 7,
	}))
	byName, err := c.DescribeDomain(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", byName.Name)
	assert.Equal(t, "ops@example.com", byName.OwnerEmail)
	assert.Equal(t, "REGISTERED", byName.Status)
	require.NotEmpty(t, byName.UUID)

	byUUID, err := c.DescribeDomainByUUID(ctx, byName.UUID)
	require.NoError(t, err)
	assert.Equal(t, byName, byUUID)

	err = c.RegisterDomain(ctx, RegisterDomainInput{Name: "orders"})
	requireRemote(t, err, protocol.RemoteErrorAlreadyExists)
	assert.Equal(t, []string{"orders"}, sim.Domains())
}

func TestPing(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	rtt, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

func TestWorkflowRoundTrip(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	invoked := make(chan WorkflowInvocation, 1)
	require.NoError(t, c.OnWorkflowInvoke(func(ctx context.Context, inv WorkflowInvocation) ([]byte, error) {
		invoked <- inv
		version, err := c.GetVersion(ctx, inv.ContextID, "greeting-format", 0, 2)
		if err != nil {
			return nil, err
		}
		again, err := c.GetVersion(ctx, inv.ContextID, "greeting-format", 1, 3)
		if err != nil {
			return nil, err
		}
		if version != 2 || again != 2 {
			return nil, errors.New("version not stable")
		}
		first, err := c.MutableSideEffect(ctx, inv.ContextID, "salt", []byte("a"))
		if err != nil {
			return nil, err
		}
		second, err := c.MutableSideEffect(ctx, inv.ContextID, "salt", []byte("b"))
		if err != nil {
			return nil, err
		}
		return append(bytes.ToUpper(inv.Args), append(first, second...)...), nil
	}))

	exec, err := c.StartWorkflow(ctx, "", "greet-1", "Greeting", []byte("hello"), StartWorkflowOptions{TaskList: "default"})
	require.NoError(t, err)
	assert.Equal(t, "greet-1", exec.ID)
	require.NotEmpty(t, exec.RunID)

	inv := waitFor(t, invoked)
	assert.Equal(t, "samples", inv.Domain)
	assert.Equal(t, exec, inv.Execution)
	assert.Equal(t, "Greeting", inv.Name)
	assert.Equal(t, "default", inv.TaskList)

	result, err := c.GetWorkflowResult(ctx, "samples", exec)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLOaa"), result)

	_, err = c.GetWorkflowResult(ctx, "samples", WorkflowExecution{ID: "missing"})
	requireRemote(t, err, protocol.RemoteErrorNotFound)
}

func TestWorkflowFailurePropagates(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	require.NoError(t, c.OnWorkflowInvoke(func(context.Context, WorkflowInvocation) ([]byte, error) {
		return nil, protocol.NewRemoteError("WorkflowPanic", "bad input")
	}))
	exec, err := c.StartWorkflow(ctx, "samples", "", "Broken", nil, StartWorkflowOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, exec.ID)

	_, err = c.GetWorkflowResult(ctx, "samples", exec)
	remote := requireRemote(t, err, "WorkflowPanic")
	assert.Equal(t, "bad input", remote.String)
}

func TestTerminateAndDescribeWorkflow(t *testing.T) {
	testlog.Start(t)
	c, sim := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	invoked := make(chan WorkflowInvocation, 1)
	require.NoError(t, c.OnWorkflowInvoke(func(ctx context.Context, inv WorkflowInvocation) ([]byte, error) {
		invoked <- inv
		select {
		case <-release:
		case <-ctx.Done():
		}
		return []byte("late"), nil
	}))

	exec, err := c.StartWorkflow(ctx, "samples", "term-1", "Sleeper", nil, StartWorkflowOptions{TaskList: "tl"})
	require.NoError(t, err)
	waitFor(t, invoked)

	desc, err := c.DescribeWorkflowExecution(ctx, "", exec)
	require.NoError(t, err)
	assert.Equal(t, exec, desc.Execution)
	assert.Equal(t, "Sleeper", desc.WorkflowType)
	assert.Equal(t, "tl", desc.TaskList)
	assert.Equal(t, messages.WorkflowStatusRunning, desc.Status)
	assert.False(t, desc.StartTime.IsZero())
	assert.True(t, desc.CloseTime.IsZero())

	require.NoError(t, c.TerminateWorkflow(ctx, "samples", exec, "operator request", []byte("details")))
	_, err = c.GetWorkflowResult(ctx, "samples", exec)
	remote := requireRemote(t, err, "TerminatedError")
	assert.Equal(t, "operator request", remote.String)

	desc, err = c.DescribeWorkflowExecution(ctx, "samples", exec)
	require.NoError(t, err)
	assert.Equal(t, messages.WorkflowStatusTerminated, desc.Status)
	assert.False(t, desc.CloseTime.IsZero())

	err = c.TerminateWorkflow(ctx, "samples", exec, "again", nil)
	requireRemote(t, err, "WorkflowExecutionCompletedError")
	_, err = c.DescribeWorkflowExecution(ctx, "samples", WorkflowExecution{ID: "missing"})
	requireRemote(t, err, protocol.RemoteErrorNotFound)

	require.NoError(t, c.SetWorkflowCacheSize(ctx, 500))
	assert.Equal(t, int64(500), sim.CacheSize())
	err = c.SetWorkflowCacheSize(ctx, -1)
	requireRemote(t, err, protocol.RemoteErrorBadRequest)
	assert.Equal(t, int64(500), sim.CacheSize())
}

func TestDescribeCompletedWorkflow(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()
	require.NoError(t, c.OnWorkflowInvoke(func(context.Context, WorkflowInvocation) ([]byte, error) {
		return []byte("ok"), nil
	}))

	exec, err := c.StartWorkflow(ctx, "samples", "done-1", "Quick", nil, StartWorkflowOptions{})
	require.NoError(t, err)
	result, err := c.GetWorkflowResult(ctx, "samples", exec)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), result)

	desc, err := c.DescribeWorkflowExecution(ctx, "samples", exec)
	require.NoError(t, err)
	assert.Equal(t, messages.WorkflowStatusCompleted, desc.Status)
	assert.False(t, desc.CloseTime.Before(desc.StartTime))
}

func TestSignalAndQuery(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	signals := make(chan SignalInvocation, 1)
	require.NoError(t, c.OnWorkflowInvoke(func(ctx context.Context, inv WorkflowInvocation) ([]byte, error) {
		select {
		case sig := <-signals:
			return sig.Args, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}))
	require.NoError(t, c.OnSignalInvoke(func(_ context.Context, inv SignalInvocation) error {
		if inv.SignalName != "go" {
			return protocol.NewRemoteError(protocol.RemoteErrorBadRequest, "unknown signal %q", inv.SignalName)
		}
		signals <- inv
		return nil
	}))
	require.NoError(t, c.OnQueryInvoke(func(_ context.Context, inv QueryInvocation) ([]byte, error) {
		return []byte("state:" + inv.QueryName), nil
	}))

	exec, err := c.StartWorkflow(ctx, "samples", "sig-1", "Waiter", nil, StartWorkflowOptions{})
	require.NoError(t, err)

	state, err := c.QueryWorkflow(ctx, "samples", exec, "status", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("state:status"), state)

	err = c.SignalWorkflow(ctx, "samples", exec, "stop", nil)
	requireRemote(t, err, protocol.RemoteErrorBadRequest)

	require.NoError(t, c.SignalWorkflow(ctx, "samples", exec, "go", []byte("payload")))
	result, err := c.GetWorkflowResult(ctx, "samples", exec)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), result)
}

func TestActivityExecuteWithHeartbeat(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())

	require.NoError(t, c.OnActivityInvoke(func(ctx context.Context, inv ActivityInvocation) ([]byte, error) {
		if err := c.RecordActivityHeartbeat(ctx, inv.ContextID, inv.TaskToken, []byte("50%")); err != nil {
			return nil, err
		}
		details, err := c.GetHeartbeatDetails(ctx, inv.ContextID)
		if err != nil {
			return nil, err
		}
		return append([]byte(inv.Activity+":"), details...), nil
	}))

	result, err := c.ExecuteActivity(context.Background(), 0, "resize", []byte("img"), ActivityOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("resize:50%"), result)
}

func TestActivityCompletedByToken(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	tokens := make(chan []byte, 1)
	require.NoError(t, c.OnActivityInvoke(func(_ context.Context, inv ActivityInvocation) ([]byte, error) {
		tokens <- inv.TaskToken
		return nil, protocol.NewRemoteError(protocol.RemoteErrorResultPending, "completing later")
	}))

	type outcome struct {
		result []byte
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := c.ExecuteActivity(ctx, 0, "approve", nil, ActivityOptions{})
		done <- outcome{result, err}
	}()

	token := waitFor(t, tokens)
	require.NoError(t, c.CompleteActivity(ctx, token, []byte("approved"), nil))
	out := waitFor(t, done)
	require.NoError(t, out.err)
	assert.Equal(t, []byte("approved"), out.result)

	err := c.CompleteActivity(ctx, token, nil, nil)
	requireRemote(t, err, protocol.RemoteErrorNotFound)
}

func TestActivityCompletedByIDWithFailure(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())
	ctx := context.Background()

	started := make(chan struct{}, 1)
	require.NoError(t, c.OnActivityInvoke(func(context.Context, ActivityInvocation) ([]byte, error) {
		started <- struct{}{}
		return nil, protocol.NewRemoteError(protocol.RemoteErrorResultPending, "external")
	}))
	require.NoError(t, c.OnWorkflowInvoke(func(ctx context.Context, inv WorkflowInvocation) ([]byte, error) {
		return c.ExecuteActivity(ctx, inv.ContextID, "charge", nil, ActivityOptions{ActivityID: "act-1"})
	}))

	exec, err := c.StartWorkflow(ctx, "samples", "wf-7", "Checkout", nil, StartWorkflowOptions{})
	require.NoError(t, err)
	waitFor(t, started)

	require.NoError(t, c.CompleteActivityByID(ctx, "samples", WorkflowExecution{ID: "wf-7"}, "act-1", nil, errors.New("card declined")))
	_, err = c.GetWorkflowResult(ctx, "samples", exec)
	remote := requireRemote(t, err, protocol.RemoteErrorGeneric)
	assert.Equal(t, "card declined", remote.String)
}

func TestCancelledActivityReceivesStopping(t *testing.T) {
	testlog.Start(t)
	c, _ := startWithSim(t, simConfig(), samplesConfig())

	started := make(chan struct{}, 1)
	stopping := make(chan ActivityStopping, 1)
	require.NoError(t, c.OnActivityInvoke(func(context.Context, ActivityInvocation) ([]byte, error) {
		started <- struct{}{}
		return nil, protocol.NewRemoteError(protocol.RemoteErrorResultPending, "external")
	}))
	require.NoError(t, c.OnActivityStopping(func(_ context.Context, stop ActivityStopping) error {
		stopping <- stop
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := c.ExecuteActivity(ctx, 0, "slow", nil, ActivityOptions{ActivityID: "slow-1"})
		errs <- err
	}()
	waitFor(t, started)
	cancel()

	require.ErrorIs(t, waitFor(t, errs), protocol.ErrCanceled)
	stop := waitFor(t, stopping)
	assert.Equal(t, "slow-1", stop.ActivityID)
}

func TestOnLogReceivesConnectAnnouncement(t *testing.T) {
	testlog.Start(t)
	simCfg := simConfig()
	simCfg.AnnounceConnect = true
	c, _ := startWithSim(t, simCfg, samplesConfig())

	entries := make(chan LogEntry, 1)
	require.NoError(t, c.OnLog(func(entry LogEntry) { entries <- entry }))
	require.NoError(t, c.Connect(context.Background()))

	entry := waitFor(t, entries)
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "connected as tester", entry.Message)
	assert.Equal(t, "proxysim", entry.Source)
}

func TestTerminateClosesSession(t *testing.T) {
	testlog.Start(t)
	c, sim := startWithSim(t, simConfig(), samplesConfig())

	require.NoError(t, c.Terminate(context.Background()))
	waitFor(t, c.Session().Done())
	assert.NoError(t, c.Session().Err())
	require.Eventually(t, func() bool { return sim.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestTimeoutSendsCancelRequest(t *testing.T) {
	testlog.Start(t)
	cfg := samplesConfig()
	cfg.RetryReads = false
	c, peer := startWithMock(t, session.Config{DefaultCallTimeout: 50 * time.Millisecond}, cfg)

	errs := make(chan error, 1)
	go func() { errs <- c.RegisterDomain(context.Background(), RegisterDomainInput{Name: "slow"}) }()
	first := peer.ReadRequest()
	require.Equal(t, messages.TagDomainRegisterRequest, first.Type())
	require.ErrorIs(t, waitFor(t, errs), protocol.ErrTimeout)

	cancelReq, ok := peer.ReadRequest().(*messages.CancelRequest)
	require.True(t, ok)
	assert.Equal(t, first.RequestID(), cancelReq.TargetRequestID)
	peer.ReplyTo(cancelReq, &messages.CancelReply{WasCancelled: true})
}

func TestReadRetriesAsNewAttempt(t *testing.T) {
	testlog.Start(t)
	cfg := samplesConfig()
	cfg.CancelOnTimeout = false
	cfg.Backoff = session.BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, MaxAttempts: 3}
	c, peer := startWithMock(t, session.Config{DefaultCallTimeout: 50 * time.Millisecond}, cfg)

	type outcome struct {
		info DomainInfo
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		info, err := c.DescribeDomain(context.Background(), "samples")
		done <- outcome{info, err}
	}()

	first := peer.ReadRequest()
	second := peer.ReadRequest()
	assert.NotEqual(t, first.RequestID(), second.RequestID())
	retried := second.(*messages.DomainDescribeRequest)
	require.NotNil(t, retried.Name)
	assert.Equal(t, "samples", *retried.Name)

	peer.ReplyTo(second, &messages.DomainDescribeReply{Name: "samples", UUID: "u-1"})
	out := waitFor(t, done)
	require.NoError(t, out.err)
	assert.Equal(t, "u-1", out.info.UUID)
}

func TestRunHeartbeatClosesSessionOnFailure(t *testing.T) {
	testlog.Start(t)
	cfg := samplesConfig()
	cfg.CancelOnTimeout = false
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.HeartbeatTimeout = 30 * time.Millisecond
	c, peer := startWithMock(t, session.Config{}, cfg)

	errs := make(chan error, 1)
	go func() { errs <- c.RunHeartbeat(context.Background()) }()

	hb := peer.ReadRequest()
	assert.Equal(t, messages.TagHeartbeatRequest, hb.Type())
	err := waitFor(t, errs)
	require.ErrorIs(t, err, protocol.ErrTimeout)
	waitFor(t, c.Session().Done())
}

func TestTranslation(t *testing.T) {
	assert.Nil(t, toStartOptions(StartWorkflowOptions{}))
	opts := toStartOptions(StartWorkflowOptions{TaskList: "tl", ExecutionTimeout: 90 * time.Second})
	require.NotNil(t, opts)
	assert.Equal(t, int64(90), opts.ExecutionStartToCloseTimeoutSec)
	assert.Nil(t, toActivityOptions(ActivityOptions{}))

	assert.Nil(t, toFailure(nil))
	typed := toFailure(protocol.NewRemoteError("custom", "x"))
	assert.Equal(t, "custom", typed.Type)
	plain := toFailure(errors.New("boom"))
	assert.Equal(t, protocol.RemoteErrorGeneric, plain.Type)
	assert.Equal(t, "boom", plain.String)

	domain, exec := fromWorkflowRef(toWorkflowRef("d", WorkflowExecution{ID: "w", RunID: "r"}))
	assert.Equal(t, "d", domain)
	assert.Equal(t, WorkflowExecution{ID: "w", RunID: "r"}, exec)

	assert.Equal(t, WorkflowDescription{}, fromExecutionDescription(nil))
}
