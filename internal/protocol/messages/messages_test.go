package messages

import (
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func roundTrip(t *testing.T, msg protocol.Message) protocol.Message {
	t.Helper()
	payload, err := protocol.EncodeMessage(msg)
	require.NoError(t, err)
	out, err := protocol.DecodeMessage(Registry(), payload)
	require.NoError(t, err)
	again, err := protocol.EncodeMessage(out)
	require.NoError(t, err)
	require.Equal(t, payload, again, "%s re-encode differs", msg.Type())
	return out
}

func TestCatalogIsFrozenAndComplete(t *testing.T) {
	reg := Registry()
	require.True(t, reg.Frozen())
	descs := reg.Descriptors()
	require.Len(t, descs, 49)

	for _, d := range descs {
		msg := d.New()
		assert.Equal(t, d.Type, msg.Type(), d.Name)
		if d.Role != protocol.RoleRequest {
			continue
		}
		req, ok := msg.(protocol.Request)
		require.True(t, ok, d.Name)
		assert.Equal(t, d.ReplyType, req.ReplyType(), d.Name)
		reply, err := reg.Lookup(d.ReplyType)
		require.NoError(t, err)
		assert.Equal(t, protocol.RoleReply, reply.Role, d.Name)
	}

	term, err := reg.Lookup(TagTerminateRequest)
	require.NoError(t, err)
	assert.True(t, term.Terminates)
	assert.Equal(t, "DomainDescribeReply", TagDomainDescribeReply.String())

	for _, tag := range []protocol.MessageType{
		TagWorkflowTerminateRequest,
		TagWorkflowDescribeExecutionRequest,
		TagWorkflowSetCacheSizeRequest,
	} {
		d, err := reg.Lookup(tag)
		require.NoError(t, err, tag.String())
		assert.Equal(t, tag+1, d.ReplyType, d.Name)
		assert.False(t, d.Terminates, d.Name)
	}
}

func TestEveryMessageRoundTripsAndClones(t *testing.T) {
	for _, d := range Registry().Descriptors() {
		msg := d.New()
		if c, ok := msg.(protocol.Correlated); ok {
			c.SetRequestID(int64(d.Type) * 10)
		}
		out := roundTrip(t, msg)
		assert.Equal(t, msg, out, d.Name)
		assert.Equal(t, msg, msg.Clone(), d.Name)
	}
}

func TestEveryRequestCarriesRequestID(t *testing.T) {
	for _, d := range Registry().Descriptors() {
		schema, err := Registry().SchemaFor(d.Type)
		require.NoError(t, err)
		_, hasID := schema.Lookup(protocol.PropRequestID)
		_, hasErr := schema.Lookup(protocol.PropError)
		switch d.Role {
		case protocol.RoleRequest:
			assert.True(t, hasID, d.Name)
		case protocol.RoleReply:
			assert.True(t, hasID, d.Name)
			assert.True(t, hasErr, d.Name)
		case protocol.RoleNotification:
			assert.False(t, hasID, d.Name)
		}
	}
}

func TestDomainDescribeWireShape(t *testing.T) {
	req := &DomainDescribeRequest{Name: strPtr("default")}
	req.SetRequestID(1)
	out := roundTrip(t, req).(*DomainDescribeRequest)
	require.NotNil(t, out.Name)
	assert.Equal(t, "default", *out.Name)
	assert.Nil(t, out.UUID, "absent uuid stays null")

	b := bag.New()
	b.SetInt(protocol.PropRequestID, 1)
	b.SetString("Name", "default")
	b.SetString("Uuid", "2f0c6a3e-0000-4000-8000-000000000001")
	reply := &DomainDescribeReply{}
	require.NoError(t, reply.ReadProps(b))
	assert.Equal(t, "default", reply.Name)
	assert.Equal(t, "2f0c6a3e-0000-4000-8000-000000000001", reply.UUID)
	assert.Equal(t, int64(1), reply.RequestID())
}

func TestResultBlobsAreByteExact(t *testing.T) {
	blob := []byte{0x00, 0xFF, 0x10, 0x00, 0x7F}
	reply := &WorkflowMutableReply{}
	reply.SetRequestID(8)
	reply.Result = blob
	out := roundTrip(t, reply).(*WorkflowMutableReply)
	assert.Equal(t, blob, out.Result)

	empty := &WorkflowGetResultReply{}
	empty.Result = []byte{}
	outEmpty := roundTrip(t, empty).(*WorkflowGetResultReply)
	assert.NotNil(t, outEmpty.Result, "empty blob is not null")
	assert.Empty(t, outEmpty.Result)
}

func TestJSONPropertiesRoundTrip(t *testing.T) {
	req := &WorkflowExecuteRequest{
		Domain:     "default",
		WorkflowID: "wf-1",
		Workflow:   "HelloWorkflow",
		Args:       []byte(`["world"]`),
		Options:    &StartOptions{TaskList: "tl", ExecutionStartToCloseTimeoutSec: 60},
	}
	out := roundTrip(t, req).(*WorkflowExecuteRequest)
	assert.Equal(t, req, out)

	reply := &WorkflowExecuteReply{Execution: &Execution{ID: "wf-1", RunID: "run-1"}}
	reply.SetRemoteError(protocol.NewRemoteError("WorkflowExecutionAlreadyStartedError", "already started"))
	outReply := roundTrip(t, reply).(*WorkflowExecuteReply)
	assert.Equal(t, "run-1", outReply.Execution.RunID)
	assert.Equal(t, "already started", outReply.RemoteError().String)

	fail := &ActivityCompleteRequest{TaskToken: []byte("tok"), Failure: protocol.NewRemoteError("custom", "bad input")}
	outFail := roundTrip(t, fail).(*ActivityCompleteRequest)
	require.NotNil(t, outFail.Failure)
	assert.Equal(t, "custom", outFail.Failure.Type)
}

func TestWorkflowAdminMessagesRoundTrip(t *testing.T) {
	term := &WorkflowTerminateRequest{
		WorkflowRef: WorkflowRef{Domain: "default", WorkflowID: "wf-1", RunID: "run-1"},
		Reason:      "operator",
		Details:     []byte{0x00, 0x01},
	}
	term.SetRequestID(3)
	assert.Equal(t, term, roundTrip(t, term))

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	desc := &WorkflowDescribeExecutionReply{Details: &ExecutionDescription{
		Execution:    Execution{ID: "wf-1", RunID: "run-1"},
		WorkflowType: "HelloWorkflow",
		TaskList:     "tl",
		Status:       WorkflowStatusRunning,
		StartTime:    started,
	}}
	desc.SetRequestID(4)
	out := roundTrip(t, desc).(*WorkflowDescribeExecutionReply)
	require.NotNil(t, out.Details)
	assert.Equal(t, WorkflowStatusRunning, out.Details.Status)
	assert.True(t, started.Equal(out.Details.StartTime))
	assert.True(t, out.Details.CloseTime.IsZero())

	clone := desc.Clone().(*WorkflowDescribeExecutionReply)
	clone.Details.Status = WorkflowStatusTerminated
	assert.Equal(t, WorkflowStatusRunning, desc.Details.Status)

	size := &WorkflowSetCacheSizeRequest{Size: 250}
	size.SetRequestID(5)
	assert.Equal(t, int64(250), roundTrip(t, size).(*WorkflowSetCacheSizeRequest).Size)
}

func TestCloneIndependence(t *testing.T) {
	orig := &WorkflowInvokeRequest{
		ContextRef:  ContextRef{ContextID: 4},
		WorkflowRef: WorkflowRef{Domain: "d", WorkflowID: "w", RunID: "r"},
		Name:        "wf",
		Args:        []byte{1, 2},
	}
	orig.SetRequestID(3)
	c := orig.Clone().(*WorkflowInvokeRequest)
	c.Args[0] = 9
	c.Domain = "other"
	c.SetRequestID(4)
	assert.Equal(t, []byte{1, 2}, orig.Args)
	assert.Equal(t, "d", orig.Domain)
	assert.Equal(t, int64(3), orig.RequestID())

	opts := &ActivityExecuteRequest{Options: &ActivityOptions{TaskList: "a"}}
	oc := opts.Clone().(*ActivityExecuteRequest)
	oc.Options.TaskList = "b"
	assert.Equal(t, "a", opts.Options.TaskList)

	desc := &DomainDescribeRequest{Name: strPtr("x")}
	dc := desc.Clone().(*DomainDescribeRequest)
	*dc.Name = "y"
	assert.Equal(t, "x", *desc.Name)
}

func TestCopyToHeaderOnlyAcrossTypes(t *testing.T) {
	src := &WorkflowQueryReply{}
	src.SetRequestID(77)
	src.Result = []byte("r")
	dst := &WorkflowGetResultReply{}
	src.CopyTo(dst)
	assert.Equal(t, int64(77), dst.RequestID())
	assert.Nil(t, dst.Result, "subtype fields only copy to the same type")
}
