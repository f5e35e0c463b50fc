package messages

import (
	"bytes"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// ActivityOptions is the JSON document carried in ActivityExecuteRequest.Options.
type ActivityOptions struct {
	TaskList            string `json:"TaskList,omitempty"`
	ScheduleToCloseSec  int64  `json:"ScheduleToCloseTimeout,omitempty"`
	ScheduleToStartSec  int64  `json:"ScheduleToStartTimeout,omitempty"`
	StartToCloseSec     int64  `json:"StartToCloseTimeout,omitempty"`
	HeartbeatTimeoutSec int64  `json:"HeartbeatTimeout,omitempty"`
	WaitForCancellation bool   `json:"WaitForCancellation,omitempty"`
	ActivityID          string `json:"ActivityID,omitempty"`
}

type ActivityExecuteRequest struct {
	protocol.RequestHeader
	ContextRef
	Activity string
	Args     []byte
	Options  *ActivityOptions
}

func (m *ActivityExecuteRequest) Type() protocol.MessageType { return TagActivityExecuteRequest }
func (m *ActivityExecuteRequest) ReplyType() protocol.MessageType {
	return TagActivityExecuteReply
}
func (m *ActivityExecuteRequest) Clone() protocol.Message {
	return cloneAs[ActivityExecuteRequest](m)
}

func (m *ActivityExecuteRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityExecuteRequest); ok {
		t.ContextRef = m.ContextRef
		t.Activity = m.Activity
		t.Args = bytes.Clone(m.Args)
		t.Options = clonePtr(m.Options)
	}
}

func (m *ActivityExecuteRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("Activity", m.Activity)
	b.SetBytes(propArgs, m.Args)
	writeJSON(b, "Options", m.Options)
}

func (m *ActivityExecuteRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.Activity = b.GetString("Activity")
	m.Args = b.GetBytes(propArgs)
	opts, err := readJSON[ActivityOptions](b, "Options")
	if err != nil {
		return err
	}
	m.Options = opts
	return nil
}

type ActivityExecuteReply struct{ ResultReply }

func (m *ActivityExecuteReply) Type() protocol.MessageType { return TagActivityExecuteReply }
func (m *ActivityExecuteReply) Clone() protocol.Message    { return cloneAs[ActivityExecuteReply](m) }
func (m *ActivityExecuteReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *ActivityExecuteReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *ActivityExecuteReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityExecuteReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

// ActivityCompleteRequest completes an activity outside of its invocation,
// addressed either by TaskToken or by workflow reference plus ActivityID.
// A non-nil Failure fails the activity instead of completing it.
type ActivityCompleteRequest struct {
	protocol.RequestHeader
	WorkflowRef
	TaskToken  []byte
	ActivityID string
	Result     []byte
	Failure    *protocol.RemoteError
}

func (m *ActivityCompleteRequest) Type() protocol.MessageType { return TagActivityCompleteRequest }
func (m *ActivityCompleteRequest) ReplyType() protocol.MessageType {
	return TagActivityCompleteReply
}
func (m *ActivityCompleteRequest) Clone() protocol.Message {
	return cloneAs[ActivityCompleteRequest](m)
}

func (m *ActivityCompleteRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityCompleteRequest); ok {
		t.WorkflowRef = m.WorkflowRef
		t.TaskToken = bytes.Clone(m.TaskToken)
		t.ActivityID = m.ActivityID
		t.Result = bytes.Clone(m.Result)
		t.Failure = m.Failure.Clone()
	}
}

func (m *ActivityCompleteRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
	b.SetBytes(propTaskToken, m.TaskToken)
	b.SetString(propActivityID, m.ActivityID)
	b.SetBytes(propResult, m.Result)
	writeJSON(b, protocol.PropError, m.Failure)
}

func (m *ActivityCompleteRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	m.TaskToken = b.GetBytes(propTaskToken)
	m.ActivityID = b.GetString(propActivityID)
	m.Result = b.GetBytes(propResult)
	failure, err := readJSON[protocol.RemoteError](b, protocol.PropError)
	if err != nil {
		return err
	}
	m.Failure = failure
	return nil
}

type ActivityCompleteReply struct{ protocol.ReplyHeader }

func (m *ActivityCompleteReply) Type() protocol.MessageType { return TagActivityCompleteReply }
func (m *ActivityCompleteReply) Clone() protocol.Message {
	return cloneAs[ActivityCompleteReply](m)
}
func (m *ActivityCompleteReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *ActivityCompleteReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *ActivityCompleteReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

type ActivityRecordHeartbeatRequest struct {
	protocol.RequestHeader
	ContextRef
	TaskToken []byte
	Details   []byte
}

func (m *ActivityRecordHeartbeatRequest) Type() protocol.MessageType {
	return TagActivityRecordHeartbeatRequest
}
func (m *ActivityRecordHeartbeatRequest) ReplyType() protocol.MessageType {
	return TagActivityRecordHeartbeatReply
}
func (m *ActivityRecordHeartbeatRequest) Clone() protocol.Message {
	return cloneAs[ActivityRecordHeartbeatRequest](m)
}

func (m *ActivityRecordHeartbeatRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityRecordHeartbeatRequest); ok {
		t.ContextRef = m.ContextRef
		t.TaskToken = bytes.Clone(m.TaskToken)
		t.Details = bytes.Clone(m.Details)
	}
}

func (m *ActivityRecordHeartbeatRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetBytes(propTaskToken, m.TaskToken)
	b.SetBytes("Details", m.Details)
}

func (m *ActivityRecordHeartbeatRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.TaskToken = b.GetBytes(propTaskToken)
	m.Details = b.GetBytes("Details")
	return nil
}

type ActivityRecordHeartbeatReply struct{ protocol.ReplyHeader }

func (m *ActivityRecordHeartbeatReply) Type() protocol.MessageType {
	return TagActivityRecordHeartbeatReply
}
func (m *ActivityRecordHeartbeatReply) Clone() protocol.Message {
	return cloneAs[ActivityRecordHeartbeatReply](m)
}
func (m *ActivityRecordHeartbeatReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
}
func (m *ActivityRecordHeartbeatReply) WriteProps(b *bag.Bag)      { m.WriteHeader(b) }
func (m *ActivityRecordHeartbeatReply) ReadProps(b *bag.Bag) error { return m.ReadHeader(b) }

type ActivityGetHeartbeatDetailsRequest struct {
	protocol.RequestHeader
	ContextRef
}

func (m *ActivityGetHeartbeatDetailsRequest) Type() protocol.MessageType {
	return TagActivityGetHeartbeatDetailsRequest
}
func (m *ActivityGetHeartbeatDetailsRequest) ReplyType() protocol.MessageType {
	return TagActivityGetHeartbeatDetailsReply
}
func (m *ActivityGetHeartbeatDetailsRequest) Clone() protocol.Message {
	return cloneAs[ActivityGetHeartbeatDetailsRequest](m)
}

func (m *ActivityGetHeartbeatDetailsRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityGetHeartbeatDetailsRequest); ok {
		t.ContextRef = m.ContextRef
	}
}

func (m *ActivityGetHeartbeatDetailsRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
}

func (m *ActivityGetHeartbeatDetailsRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	return nil
}

type ActivityGetHeartbeatDetailsReply struct {
	protocol.ReplyHeader
	Details []byte
}

func (m *ActivityGetHeartbeatDetailsReply) Type() protocol.MessageType {
	return TagActivityGetHeartbeatDetailsReply
}
func (m *ActivityGetHeartbeatDetailsReply) Clone() protocol.Message {
	return cloneAs[ActivityGetHeartbeatDetailsReply](m)
}

func (m *ActivityGetHeartbeatDetailsReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityGetHeartbeatDetailsReply); ok {
		t.Details = bytes.Clone(m.Details)
	}
}

func (m *ActivityGetHeartbeatDetailsReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetBytes("Details", m.Details)
}

func (m *ActivityGetHeartbeatDetailsReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	m.Details = b.GetBytes("Details")
	return nil
}

// ActivityInvokeRequest is sent by the proxy to run an activity in the client.
type ActivityInvokeRequest struct {
	protocol.RequestHeader
	ContextRef
	Activity  string
	Args      []byte
	TaskToken []byte
}

func (m *ActivityInvokeRequest) Type() protocol.MessageType { return TagActivityInvokeRequest }
func (m *ActivityInvokeRequest) ReplyType() protocol.MessageType {
	return TagActivityInvokeReply
}
func (m *ActivityInvokeRequest) Clone() protocol.Message {
	return cloneAs[ActivityInvokeRequest](m)
}

func (m *ActivityInvokeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityInvokeRequest); ok {
		t.ContextRef = m.ContextRef
		t.Activity = m.Activity
		t.Args = bytes.Clone(m.Args)
		t.TaskToken = bytes.Clone(m.TaskToken)
	}
}

func (m *ActivityInvokeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("Activity", m.Activity)
	b.SetBytes(propArgs, m.Args)
	b.SetBytes(propTaskToken, m.TaskToken)
}

func (m *ActivityInvokeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.Activity = b.GetString("Activity")
	m.Args = b.GetBytes(propArgs)
	m.TaskToken = b.GetBytes(propTaskToken)
	return nil
}

type ActivityInvokeReply struct{ ResultReply }

func (m *ActivityInvokeReply) Type() protocol.MessageType { return TagActivityInvokeReply }
func (m *ActivityInvokeReply) Clone() protocol.Message    { return cloneAs[ActivityInvokeReply](m) }
func (m *ActivityInvokeReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *ActivityInvokeReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *ActivityInvokeReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityInvokeReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

// ActivityStoppingRequest tells the client a running activity is being
// cancelled or its worker is shutting down.
type ActivityStoppingRequest struct {
	protocol.RequestHeader
	ContextRef
	ActivityID string
}

func (m *ActivityStoppingRequest) Type() protocol.MessageType { return TagActivityStoppingRequest }
func (m *ActivityStoppingRequest) ReplyType() protocol.MessageType {
	return TagActivityStoppingReply
}
func (m *ActivityStoppingRequest) Clone() protocol.Message {
	return cloneAs[ActivityStoppingRequest](m)
}

func (m *ActivityStoppingRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ActivityStoppingRequest); ok {
		t.ContextRef = m.ContextRef
		t.ActivityID = m.ActivityID
	}
}

func (m *ActivityStoppingRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString(propActivityID, m.ActivityID)
}

func (m *ActivityStoppingRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.ActivityID = b.GetString(propActivityID)
	return nil
}

type ActivityStoppingReply struct{ protocol.ReplyHeader }

func (m *ActivityStoppingReply) Type() protocol.MessageType { return TagActivityStoppingReply }
func (m *ActivityStoppingReply) Clone() protocol.Message {
	return cloneAs[ActivityStoppingReply](m)
}
func (m *ActivityStoppingReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *ActivityStoppingReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *ActivityStoppingReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }
