package messages

import (
	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// ConnectRequest opens the proxy's connection to the workflow cluster.
type ConnectRequest struct {
	protocol.RequestHeader
	Endpoints string
	Identity  string
	Domain    string
	// ClientTimeoutMS bounds every engine call the proxy makes.
	ClientTimeoutMS int64
}

func (m *ConnectRequest) Type() protocol.MessageType      { return TagConnectRequest }
func (m *ConnectRequest) ReplyType() protocol.MessageType { return TagConnectReply }
func (m *ConnectRequest) Clone() protocol.Message         { return cloneAs[ConnectRequest](m) }

func (m *ConnectRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*ConnectRequest); ok {
		t.Endpoints = m.Endpoints
		t.Identity = m.Identity
		t.Domain = m.Domain
		t.ClientTimeoutMS = m.ClientTimeoutMS
	}
}

func (m *ConnectRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetString("Endpoints", m.Endpoints)
	b.SetString("Identity", m.Identity)
	b.SetString(propDomain, m.Domain)
	b.SetInt("ClientTimeout", m.ClientTimeoutMS)
}

func (m *ConnectRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.Endpoints = b.GetString("Endpoints")
	m.Identity = b.GetString("Identity")
	m.Domain = b.GetString(propDomain)
	m.ClientTimeoutMS = b.GetInt("ClientTimeout")
	return nil
}

type ConnectReply struct{ protocol.ReplyHeader }

func (m *ConnectReply) Type() protocol.MessageType     { return TagConnectReply }
func (m *ConnectReply) Clone() protocol.Message        { return cloneAs[ConnectReply](m) }
func (m *ConnectReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *ConnectReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *ConnectReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

// TerminateRequest asks the peer to shut the session down. Either side may
// send it; both then drain.
type TerminateRequest struct{ protocol.RequestHeader }

func (m *TerminateRequest) Type() protocol.MessageType      { return TagTerminateRequest }
func (m *TerminateRequest) ReplyType() protocol.MessageType { return TagTerminateReply }
func (m *TerminateRequest) Clone() protocol.Message         { return cloneAs[TerminateRequest](m) }
func (m *TerminateRequest) CopyTo(target protocol.Message)  { protocol.CopyHeader(m, target) }
func (m *TerminateRequest) WriteProps(b *bag.Bag)           { m.WriteHeader(b) }
func (m *TerminateRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	return nil
}

type TerminateReply struct{ protocol.ReplyHeader }

func (m *TerminateReply) Type() protocol.MessageType     { return TagTerminateReply }
func (m *TerminateReply) Clone() protocol.Message        { return cloneAs[TerminateReply](m) }
func (m *TerminateReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *TerminateReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *TerminateReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

type HeartbeatRequest struct{ protocol.RequestHeader }

func (m *HeartbeatRequest) Type() protocol.MessageType      { return TagHeartbeatRequest }
func (m *HeartbeatRequest) ReplyType() protocol.MessageType { return TagHeartbeatReply }
func (m *HeartbeatRequest) Clone() protocol.Message         { return cloneAs[HeartbeatRequest](m) }
func (m *HeartbeatRequest) CopyTo(target protocol.Message)  { protocol.CopyHeader(m, target) }
func (m *HeartbeatRequest) WriteProps(b *bag.Bag)           { m.WriteHeader(b) }
func (m *HeartbeatRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	return nil
}

type HeartbeatReply struct{ protocol.ReplyHeader }

func (m *HeartbeatReply) Type() protocol.MessageType     { return TagHeartbeatReply }
func (m *HeartbeatReply) Clone() protocol.Message        { return cloneAs[HeartbeatReply](m) }
func (m *HeartbeatReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *HeartbeatReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *HeartbeatReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }

// CancelRequest asks the proxy to abandon the operation started by an earlier
// request. It is best effort.
type CancelRequest struct {
	protocol.RequestHeader
	TargetRequestID int64
}

func (m *CancelRequest) Type() protocol.MessageType      { return TagCancelRequest }
func (m *CancelRequest) ReplyType() protocol.MessageType { return TagCancelReply }
func (m *CancelRequest) Clone() protocol.Message         { return cloneAs[CancelRequest](m) }

func (m *CancelRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*CancelRequest); ok {
		t.TargetRequestID = m.TargetRequestID
	}
}

func (m *CancelRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetInt("TargetRequestId", m.TargetRequestID)
}

func (m *CancelRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.TargetRequestID = b.GetInt("TargetRequestId")
	return nil
}

type CancelReply struct {
	protocol.ReplyHeader
	WasCancelled bool
}

func (m *CancelReply) Type() protocol.MessageType { return TagCancelReply }
func (m *CancelReply) Clone() protocol.Message    { return cloneAs[CancelReply](m) }

func (m *CancelReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*CancelReply); ok {
		t.WasCancelled = m.WasCancelled
	}
}

func (m *CancelReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetBool("WasCancelled", m.WasCancelled)
}

func (m *CancelReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	m.WasCancelled = b.GetBool("WasCancelled")
	return nil
}

// LogNotification forwards a proxy log line. It is never answered.
type LogNotification struct {
	Level   string
	Message string
	Source  string
}

func (m *LogNotification) Type() protocol.MessageType { return TagLogNotification }
func (m *LogNotification) Clone() protocol.Message    { return cloneAs[LogNotification](m) }

func (m *LogNotification) CopyTo(target protocol.Message) {
	if t, ok := target.(*LogNotification); ok {
		*t = *m
	}
}

func (m *LogNotification) WriteProps(b *bag.Bag) {
	b.SetString("Level", m.Level)
	b.SetString("Message", m.Message)
	b.SetString("Source", m.Source)
}

func (m *LogNotification) ReadProps(b *bag.Bag) error {
	m.Level = b.GetString("Level")
	m.Message = b.GetString("Message")
	m.Source = b.GetString("Source")
	return nil
}
