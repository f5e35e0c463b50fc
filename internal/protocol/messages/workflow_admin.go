package messages

import (
	"bytes"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// Workflow run states reported in ExecutionDescription.Status.
const (
	WorkflowStatusRunning    = "RUNNING"
	WorkflowStatusCompleted  = "COMPLETED"
	WorkflowStatusFailed     = "FAILED"
	WorkflowStatusTerminated = "TERMINATED"
)

// WorkflowTerminateRequest ends a run on the engine side. It does not affect
// the session; TerminateRequest is the session-level counterpart.
type WorkflowTerminateRequest struct {
	protocol.RequestHeader
	WorkflowRef
	Reason  string
	Details []byte
}

func (m *WorkflowTerminateRequest) Type() protocol.MessageType {
	return TagWorkflowTerminateRequest
}
func (m *WorkflowTerminateRequest) ReplyType() protocol.MessageType {
	return TagWorkflowTerminateReply
}
func (m *WorkflowTerminateRequest) Clone() protocol.Message {
	return cloneAs[WorkflowTerminateRequest](m)
}

func (m *WorkflowTerminateRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowTerminateRequest); ok {
		t.WorkflowRef = m.WorkflowRef
		t.Reason = m.Reason
		t.Details = bytes.Clone(m.Details)
	}
}

func (m *WorkflowTerminateRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
	b.SetString("Reason", m.Reason)
	b.SetBytes("Details", m.Details)
}

func (m *WorkflowTerminateRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	m.Reason = b.GetString("Reason")
	m.Details = b.GetBytes("Details")
	return nil
}

type WorkflowTerminateReply struct{ protocol.ReplyHeader }

func (m *WorkflowTerminateReply) Type() protocol.MessageType { return TagWorkflowTerminateReply }
func (m *WorkflowTerminateReply) Clone() protocol.Message {
	return cloneAs[WorkflowTerminateReply](m)
}
func (m *WorkflowTerminateReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *WorkflowTerminateReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *WorkflowTerminateReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

// ExecutionDescription is the JSON document carried in
// WorkflowDescribeExecutionReply.Details.
type ExecutionDescription struct {
	Execution    Execution `json:"Execution"`
	WorkflowType string    `json:"WorkflowType,omitempty"`
	TaskList     string    `json:"TaskList,omitempty"`
	Status       string    `json:"Status"`
	StartTime    time.Time `json:"StartTime,omitzero"`
	CloseTime    time.Time `json:"CloseTime,omitzero"`
}

type WorkflowDescribeExecutionRequest struct {
	protocol.RequestHeader
	WorkflowRef
}

func (m *WorkflowDescribeExecutionRequest) Type() protocol.MessageType {
	return TagWorkflowDescribeExecutionRequest
}
func (m *WorkflowDescribeExecutionRequest) ReplyType() protocol.MessageType {
	return TagWorkflowDescribeExecutionReply
}
func (m *WorkflowDescribeExecutionRequest) Clone() protocol.Message {
	return cloneAs[WorkflowDescribeExecutionRequest](m)
}

func (m *WorkflowDescribeExecutionRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowDescribeExecutionRequest); ok {
		t.WorkflowRef = m.WorkflowRef
	}
}

func (m *WorkflowDescribeExecutionRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
}

func (m *WorkflowDescribeExecutionRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	return nil
}

type WorkflowDescribeExecutionReply struct {
	protocol.ReplyHeader
	Details *ExecutionDescription
}

func (m *WorkflowDescribeExecutionReply) Type() protocol.MessageType {
	return TagWorkflowDescribeExecutionReply
}
func (m *WorkflowDescribeExecutionReply) Clone() protocol.Message {
	return cloneAs[WorkflowDescribeExecutionReply](m)
}

func (m *WorkflowDescribeExecutionReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowDescribeExecutionReply); ok {
		t.Details = clonePtr(m.Details)
	}
}

func (m *WorkflowDescribeExecutionReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	writeJSON(b, "Details", m.Details)
}

func (m *WorkflowDescribeExecutionReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	details, err := readJSON[ExecutionDescription](b, "Details")
	if err != nil {
		return err
	}
	m.Details = details
	return nil
}

// WorkflowSetCacheSizeRequest sets how many workflow executions the proxy
// keeps cached for replay.
type WorkflowSetCacheSizeRequest struct {
	protocol.RequestHeader
	Size int64
}

func (m *WorkflowSetCacheSizeRequest) Type() protocol.MessageType {
	return TagWorkflowSetCacheSizeRequest
}
func (m *WorkflowSetCacheSizeRequest) ReplyType() protocol.MessageType {
	return TagWorkflowSetCacheSizeReply
}
func (m *WorkflowSetCacheSizeRequest) Clone() protocol.Message {
	return cloneAs[WorkflowSetCacheSizeRequest](m)
}

func (m *WorkflowSetCacheSizeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowSetCacheSizeRequest); ok {
		t.Size = m.Size
	}
}

func (m *WorkflowSetCacheSizeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetInt("Size", m.Size)
}

func (m *WorkflowSetCacheSizeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.Size = b.GetInt("Size")
	return nil
}

type WorkflowSetCacheSizeReply struct{ protocol.ReplyHeader }

func (m *WorkflowSetCacheSizeReply) Type() protocol.MessageType { return TagWorkflowSetCacheSizeReply }
func (m *WorkflowSetCacheSizeReply) Clone() protocol.Message {
	return cloneAs[WorkflowSetCacheSizeReply](m)
}
func (m *WorkflowSetCacheSizeReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *WorkflowSetCacheSizeReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *WorkflowSetCacheSizeReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }
