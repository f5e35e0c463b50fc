package messages

import (
	"bytes"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// StartOptions is the JSON document carried in WorkflowExecuteRequest.Options.
// Timeouts are whole seconds, matching the engine API.
type StartOptions struct {
	ID                              string `json:"ID,omitempty"`
	TaskList                        string `json:"TaskList,omitempty"`
	ExecutionStartToCloseTimeoutSec int64  `json:"ExecutionStartToCloseTimeout,omitempty"`
	DecisionTaskStartToCloseSec     int64  `json:"DecisionTaskStartToCloseTimeout,omitempty"`
	WorkflowIDReusePolicy           int64  `json:"WorkflowIDReusePolicy,omitempty"`
	CronSchedule                    string `json:"CronSchedule,omitempty"`
}

// Execution is the JSON document identifying a started run.
type Execution struct {
	ID    string `json:"ID"`
	RunID string `json:"RunID"`
}

type WorkflowExecuteRequest struct {
	protocol.RequestHeader
	Domain     string
	WorkflowID string
	Workflow   string
	Args       []byte
	Options    *StartOptions
}

func (m *WorkflowExecuteRequest) Type() protocol.MessageType { return TagWorkflowExecuteRequest }
func (m *WorkflowExecuteRequest) ReplyType() protocol.MessageType {
	return TagWorkflowExecuteReply
}
func (m *WorkflowExecuteRequest) Clone() protocol.Message {
	return cloneAs[WorkflowExecuteRequest](m)
}

func (m *WorkflowExecuteRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowExecuteRequest); ok {
		t.Domain = m.Domain
		t.WorkflowID = m.WorkflowID
		t.Workflow = m.Workflow
		t.Args = bytes.Clone(m.Args)
		t.Options = clonePtr(m.Options)
	}
}

func (m *WorkflowExecuteRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetString(propDomain, m.Domain)
	b.SetString(propWorkflowID, m.WorkflowID)
	b.SetString("Workflow", m.Workflow)
	b.SetBytes(propArgs, m.Args)
	writeJSON(b, "Options", m.Options)
}

func (m *WorkflowExecuteRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.Domain = b.GetString(propDomain)
	m.WorkflowID = b.GetString(propWorkflowID)
	m.Workflow = b.GetString("Workflow")
	m.Args = b.GetBytes(propArgs)
	opts, err := readJSON[StartOptions](b, "Options")
	if err != nil {
		return err
	}
	m.Options = opts
	return nil
}

type WorkflowExecuteReply struct {
	protocol.ReplyHeader
	Execution *Execution
}

func (m *WorkflowExecuteReply) Type() protocol.MessageType { return TagWorkflowExecuteReply }
func (m *WorkflowExecuteReply) Clone() protocol.Message {
	return cloneAs[WorkflowExecuteReply](m)
}

func (m *WorkflowExecuteReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowExecuteReply); ok {
		t.Execution = clonePtr(m.Execution)
	}
}

func (m *WorkflowExecuteReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	writeJSON(b, "Execution", m.Execution)
}

func (m *WorkflowExecuteReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	exec, err := readJSON[Execution](b, "Execution")
	if err != nil {
		return err
	}
	m.Execution = exec
	return nil
}

type WorkflowSignalRequest struct {
	protocol.RequestHeader
	WorkflowRef
	SignalName string
	SignalArgs []byte
}

func (m *WorkflowSignalRequest) Type() protocol.MessageType { return TagWorkflowSignalRequest }
func (m *WorkflowSignalRequest) ReplyType() protocol.MessageType {
	return TagWorkflowSignalReply
}
func (m *WorkflowSignalRequest) Clone() protocol.Message {
	return cloneAs[WorkflowSignalRequest](m)
}

func (m *WorkflowSignalRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowSignalRequest); ok {
		t.WorkflowRef = m.WorkflowRef
		t.SignalName = m.SignalName
		t.SignalArgs = bytes.Clone(m.SignalArgs)
	}
}

func (m *WorkflowSignalRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
	b.SetString("SignalName", m.SignalName)
	b.SetBytes("SignalArgs", m.SignalArgs)
}

func (m *WorkflowSignalRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	m.SignalName = b.GetString("SignalName")
	m.SignalArgs = b.GetBytes("SignalArgs")
	return nil
}

type WorkflowSignalReply struct{ protocol.ReplyHeader }

func (m *WorkflowSignalReply) Type() protocol.MessageType     { return TagWorkflowSignalReply }
func (m *WorkflowSignalReply) Clone() protocol.Message        { return cloneAs[WorkflowSignalReply](m) }
func (m *WorkflowSignalReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *WorkflowSignalReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *WorkflowSignalReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

type WorkflowQueryRequest struct {
	protocol.RequestHeader
	WorkflowRef
	QueryName string
	QueryArgs []byte
}

func (m *WorkflowQueryRequest) Type() protocol.MessageType { return TagWorkflowQueryRequest }
func (m *WorkflowQueryRequest) ReplyType() protocol.MessageType {
	return TagWorkflowQueryReply
}
func (m *WorkflowQueryRequest) Clone() protocol.Message {
	return cloneAs[WorkflowQueryRequest](m)
}

func (m *WorkflowQueryRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowQueryRequest); ok {
		t.WorkflowRef = m.WorkflowRef
		t.QueryName = m.QueryName
		t.QueryArgs = bytes.Clone(m.QueryArgs)
	}
}

func (m *WorkflowQueryRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
	b.SetString("QueryName", m.QueryName)
	b.SetBytes("QueryArgs", m.QueryArgs)
}

func (m *WorkflowQueryRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	m.QueryName = b.GetString("QueryName")
	m.QueryArgs = b.GetBytes("QueryArgs")
	return nil
}

// ResultReply is the field set of every reply that returns an opaque result
// blob. The protocol guarantees byte-exact delivery and nothing else.
type ResultReply struct {
	protocol.ReplyHeader
	Result []byte
}

func (r *ResultReply) writeResult(b *bag.Bag) {
	r.WriteHeader(b)
	b.SetBytes(propResult, r.Result)
}

func (r *ResultReply) readResult(b *bag.Bag) error {
	if err := r.ReadHeader(b); err != nil {
		return err
	}
	r.Result = b.GetBytes(propResult)
	return nil
}

func (r *ResultReply) copyResult(t *ResultReply) {
	t.Result = bytes.Clone(r.Result)
}

type WorkflowQueryReply struct{ ResultReply }

func (m *WorkflowQueryReply) Type() protocol.MessageType { return TagWorkflowQueryReply }
func (m *WorkflowQueryReply) Clone() protocol.Message    { return cloneAs[WorkflowQueryReply](m) }
func (m *WorkflowQueryReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *WorkflowQueryReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *WorkflowQueryReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowQueryReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

// WorkflowGetResultRequest blocks on the proxy until the run closes, which
// may take as long as the workflow itself.
type WorkflowGetResultRequest struct {
	protocol.RequestHeader
	WorkflowRef
}

func (m *WorkflowGetResultRequest) Type() protocol.MessageType {
	return TagWorkflowGetResultRequest
}
func (m *WorkflowGetResultRequest) ReplyType() protocol.MessageType {
	return TagWorkflowGetResultReply
}
func (m *WorkflowGetResultRequest) Clone() protocol.Message {
	return cloneAs[WorkflowGetResultRequest](m)
}

func (m *WorkflowGetResultRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowGetResultRequest); ok {
		t.WorkflowRef = m.WorkflowRef
	}
}

func (m *WorkflowGetResultRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeRef(b)
}

func (m *WorkflowGetResultRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readRef(b)
	return nil
}

type WorkflowGetResultReply struct{ ResultReply }

func (m *WorkflowGetResultReply) Type() protocol.MessageType { return TagWorkflowGetResultReply }
func (m *WorkflowGetResultReply) Clone() protocol.Message {
	return cloneAs[WorkflowGetResultReply](m)
}
func (m *WorkflowGetResultReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *WorkflowGetResultReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *WorkflowGetResultReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowGetResultReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

// WorkflowGetVersionRequest records or replays a versioning decision inside
// the workflow identified by ContextID.
type WorkflowGetVersionRequest struct {
	protocol.RequestHeader
	ContextRef
	ChangeID     string
	MinSupported int64
	MaxSupported int64
}

func (m *WorkflowGetVersionRequest) Type() protocol.MessageType {
	return TagWorkflowGetVersionRequest
}
func (m *WorkflowGetVersionRequest) ReplyType() protocol.MessageType {
	return TagWorkflowGetVersionReply
}
func (m *WorkflowGetVersionRequest) Clone() protocol.Message {
	return cloneAs[WorkflowGetVersionRequest](m)
}

func (m *WorkflowGetVersionRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowGetVersionRequest); ok {
		t.ContextRef = m.ContextRef
		t.ChangeID = m.ChangeID
		t.MinSupported = m.MinSupported
		t.MaxSupported = m.MaxSupported
	}
}

func (m *WorkflowGetVersionRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("ChangeId", m.ChangeID)
	b.SetInt("MinSupported", m.MinSupported)
	b.SetInt("MaxSupported", m.MaxSupported)
}

func (m *WorkflowGetVersionRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.ChangeID = b.GetString("ChangeId")
	m.MinSupported = b.GetInt("MinSupported")
	m.MaxSupported = b.GetInt("MaxSupported")
	return nil
}

type WorkflowGetVersionReply struct {
	protocol.ReplyHeader
	Version int64
}

func (m *WorkflowGetVersionReply) Type() protocol.MessageType { return TagWorkflowGetVersionReply }
func (m *WorkflowGetVersionReply) Clone() protocol.Message {
	return cloneAs[WorkflowGetVersionReply](m)
}

func (m *WorkflowGetVersionReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowGetVersionReply); ok {
		t.Version = m.Version
	}
}

func (m *WorkflowGetVersionReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetInt("Version", m.Version)
}

func (m *WorkflowGetVersionReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	m.Version = b.GetInt("Version")
	return nil
}

// WorkflowMutableRequest records a side-effect value under MutableID. The
// reply carries the value the history holds, which may differ on replay.
type WorkflowMutableRequest struct {
	protocol.RequestHeader
	ContextRef
	MutableID string
	Result    []byte
}

func (m *WorkflowMutableRequest) Type() protocol.MessageType { return TagWorkflowMutableRequest }
func (m *WorkflowMutableRequest) ReplyType() protocol.MessageType {
	return TagWorkflowMutableReply
}
func (m *WorkflowMutableRequest) Clone() protocol.Message {
	return cloneAs[WorkflowMutableRequest](m)
}

func (m *WorkflowMutableRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowMutableRequest); ok {
		t.ContextRef = m.ContextRef
		t.MutableID = m.MutableID
		t.Result = bytes.Clone(m.Result)
	}
}

func (m *WorkflowMutableRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("MutableId", m.MutableID)
	b.SetBytes(propResult, m.Result)
}

func (m *WorkflowMutableRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.MutableID = b.GetString("MutableId")
	m.Result = b.GetBytes(propResult)
	return nil
}

type WorkflowMutableReply struct{ ResultReply }

func (m *WorkflowMutableReply) Type() protocol.MessageType { return TagWorkflowMutableReply }
func (m *WorkflowMutableReply) Clone() protocol.Message    { return cloneAs[WorkflowMutableReply](m) }
func (m *WorkflowMutableReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *WorkflowMutableReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *WorkflowMutableReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowMutableReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

// WorkflowInvokeRequest is sent by the proxy to run workflow code in the
// client for one decision task.
type WorkflowInvokeRequest struct {
	protocol.RequestHeader
	ContextRef
	WorkflowRef
	Name         string
	Args         []byte
	WorkflowType string
	TaskList     string
}

func (m *WorkflowInvokeRequest) Type() protocol.MessageType { return TagWorkflowInvokeRequest }
func (m *WorkflowInvokeRequest) ReplyType() protocol.MessageType {
	return TagWorkflowInvokeReply
}
func (m *WorkflowInvokeRequest) Clone() protocol.Message {
	return cloneAs[WorkflowInvokeRequest](m)
}

func (m *WorkflowInvokeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowInvokeRequest); ok {
		t.ContextRef = m.ContextRef
		t.WorkflowRef = m.WorkflowRef
		t.Name = m.Name
		t.Args = bytes.Clone(m.Args)
		t.WorkflowType = m.WorkflowType
		t.TaskList = m.TaskList
	}
}

func (m *WorkflowInvokeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	m.writeRef(b)
	b.SetString(propName, m.Name)
	b.SetBytes(propArgs, m.Args)
	b.SetString("WorkflowType", m.WorkflowType)
	b.SetString("TaskList", m.TaskList)
}

func (m *WorkflowInvokeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.readRef(b)
	m.Name = b.GetString(propName)
	m.Args = b.GetBytes(propArgs)
	m.WorkflowType = b.GetString("WorkflowType")
	m.TaskList = b.GetString("TaskList")
	return nil
}

type WorkflowInvokeReply struct{ ResultReply }

func (m *WorkflowInvokeReply) Type() protocol.MessageType { return TagWorkflowInvokeReply }
func (m *WorkflowInvokeReply) Clone() protocol.Message    { return cloneAs[WorkflowInvokeReply](m) }
func (m *WorkflowInvokeReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *WorkflowInvokeReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *WorkflowInvokeReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowInvokeReply); ok {
		m.copyResult(&t.ResultReply)
	}
}

type WorkflowSignalInvokeRequest struct {
	protocol.RequestHeader
	ContextRef
	SignalName string
	SignalArgs []byte
}

func (m *WorkflowSignalInvokeRequest) Type() protocol.MessageType {
	return TagWorkflowSignalInvokeRequest
}
func (m *WorkflowSignalInvokeRequest) ReplyType() protocol.MessageType {
	return TagWorkflowSignalInvokeReply
}
func (m *WorkflowSignalInvokeRequest) Clone() protocol.Message {
	return cloneAs[WorkflowSignalInvokeRequest](m)
}

func (m *WorkflowSignalInvokeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowSignalInvokeRequest); ok {
		t.ContextRef = m.ContextRef
		t.SignalName = m.SignalName
		t.SignalArgs = bytes.Clone(m.SignalArgs)
	}
}

func (m *WorkflowSignalInvokeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("SignalName", m.SignalName)
	b.SetBytes("SignalArgs", m.SignalArgs)
}

func (m *WorkflowSignalInvokeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.SignalName = b.GetString("SignalName")
	m.SignalArgs = b.GetBytes("SignalArgs")
	return nil
}

type WorkflowSignalInvokeReply struct{ protocol.ReplyHeader }

func (m *WorkflowSignalInvokeReply) Type() protocol.MessageType {
	return TagWorkflowSignalInvokeReply
}
func (m *WorkflowSignalInvokeReply) Clone() protocol.Message {
	return cloneAs[WorkflowSignalInvokeReply](m)
}
func (m *WorkflowSignalInvokeReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *WorkflowSignalInvokeReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *WorkflowSignalInvokeReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

type WorkflowQueryInvokeRequest struct {
	protocol.RequestHeader
	ContextRef
	QueryName string
	QueryArgs []byte
}

func (m *WorkflowQueryInvokeRequest) Type() protocol.MessageType {
	return TagWorkflowQueryInvokeRequest
}
func (m *WorkflowQueryInvokeRequest) ReplyType() protocol.MessageType {
	return TagWorkflowQueryInvokeReply
}
func (m *WorkflowQueryInvokeRequest) Clone() protocol.Message {
	return cloneAs[WorkflowQueryInvokeRequest](m)
}

func (m *WorkflowQueryInvokeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowQueryInvokeRequest); ok {
		t.ContextRef = m.ContextRef
		t.QueryName = m.QueryName
		t.QueryArgs = bytes.Clone(m.QueryArgs)
	}
}

func (m *WorkflowQueryInvokeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	m.writeContext(b)
	b.SetString("QueryName", m.QueryName)
	b.SetBytes("QueryArgs", m.QueryArgs)
}

func (m *WorkflowQueryInvokeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.readContext(b)
	m.QueryName = b.GetString("QueryName")
	m.QueryArgs = b.GetBytes("QueryArgs")
	return nil
}

type WorkflowQueryInvokeReply struct{ ResultReply }

func (m *WorkflowQueryInvokeReply) Type() protocol.MessageType {
	return TagWorkflowQueryInvokeReply
}
func (m *WorkflowQueryInvokeReply) Clone() protocol.Message {
	return cloneAs[WorkflowQueryInvokeReply](m)
}
func (m *WorkflowQueryInvokeReply) WriteProps(b *bag.Bag)      { m.writeResult(b) }
func (m *WorkflowQueryInvokeReply) ReadProps(b *bag.Bag) error { return m.readResult(b) }

func (m *WorkflowQueryInvokeReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*WorkflowQueryInvokeReply); ok {
		m.copyResult(&t.ResultReply)
	}
}
