package messages

import (
	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// DomainDescribeRequest looks a domain up by name or by UUID. Exactly one of
// the two is normally set; the other travels as null.
type DomainDescribeRequest struct {
	protocol.RequestHeader
	Name *string
	UUID *string
}

func (m *DomainDescribeRequest) Type() protocol.MessageType { return TagDomainDescribeRequest }
func (m *DomainDescribeRequest) ReplyType() protocol.MessageType {
	return TagDomainDescribeReply
}
func (m *DomainDescribeRequest) Clone() protocol.Message {
	return cloneAs[DomainDescribeRequest](m)
}

func (m *DomainDescribeRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*DomainDescribeRequest); ok {
		t.Name = clonePtr(m.Name)
		t.UUID = clonePtr(m.UUID)
	}
}

func (m *DomainDescribeRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetStringPtr(propName, m.Name)
	b.SetStringPtr("Uuid", m.UUID)
}

func (m *DomainDescribeRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.Name = b.GetStringPtr(propName)
	m.UUID = b.GetStringPtr("Uuid")
	return nil
}

type DomainDescribeReply struct {
	protocol.ReplyHeader
	Name        string
	UUID        string
	Description string
	Status      string
	OwnerEmail  string
}

func (m *DomainDescribeReply) Type() protocol.MessageType { return TagDomainDescribeReply }
func (m *DomainDescribeReply) Clone() protocol.Message {
	return cloneAs[DomainDescribeReply](m)
}

func (m *DomainDescribeReply) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*DomainDescribeReply); ok {
		t.Name = m.Name
		t.UUID = m.UUID
		t.Description = m.Description
		t.Status = m.Status
		t.OwnerEmail = m.OwnerEmail
	}
}

func (m *DomainDescribeReply) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetString(propName, m.Name)
	b.SetString("Uuid", m.UUID)
	b.SetString("Description", m.Description)
	b.SetString("Status", m.Status)
	b.SetString("OwnerEmail", m.OwnerEmail)
}

func (m *DomainDescribeReply) ReadProps(b *bag.Bag) error {
	if err := m.ReadHeader(b); err != nil {
		return err
	}
	m.Name = b.GetString(propName)
	m.UUID = b.GetString("Uuid")
	m.Description = b.GetString("Description")
	m.Status = b.GetString("Status")
	m.OwnerEmail = b.GetString("OwnerEmail")
	return nil
}

type DomainRegisterRequest struct {
	protocol.RequestHeader
	Name          string
	Description   string
	OwnerEmail    string
	RetentionDays int64
}

func (m *DomainRegisterRequest) Type() protocol.MessageType { return TagDomainRegisterRequest }
func (m *DomainRegisterRequest) ReplyType() protocol.MessageType {
	return TagDomainRegisterReply
}
func (m *DomainRegisterRequest) Clone() protocol.Message {
	return cloneAs[DomainRegisterRequest](m)
}

func (m *DomainRegisterRequest) CopyTo(target protocol.Message) {
	protocol.CopyHeader(m, target)
	if t, ok := target.(*DomainRegisterRequest); ok {
		t.Name = m.Name
		t.Description = m.Description
		t.OwnerEmail = m.OwnerEmail
		t.RetentionDays = m.RetentionDays
	}
}

func (m *DomainRegisterRequest) WriteProps(b *bag.Bag) {
	m.WriteHeader(b)
	b.SetString(propName, m.Name)
	b.SetString("Description", m.Description)
	b.SetString("OwnerEmail", m.OwnerEmail)
	b.SetInt("RetentionDays", m.RetentionDays)
}

func (m *DomainRegisterRequest) ReadProps(b *bag.Bag) error {
	m.ReadHeader(b)
	m.Name = b.GetString(propName)
	m.Description = b.GetString("Description")
	m.OwnerEmail = b.GetString("OwnerEmail")
	m.RetentionDays = b.GetInt("RetentionDays")
	return nil
}

type DomainRegisterReply struct{ protocol.ReplyHeader }

func (m *DomainRegisterReply) Type() protocol.MessageType     { return TagDomainRegisterReply }
func (m *DomainRegisterReply) Clone() protocol.Message        { return cloneAs[DomainRegisterReply](m) }
func (m *DomainRegisterReply) CopyTo(target protocol.Message) { protocol.CopyHeader(m, target) }
func (m *DomainRegisterReply) WriteProps(b *bag.Bag)          { m.WriteHeader(b) }
func (m *DomainRegisterReply) ReadProps(b *bag.Bag) error     { return m.ReadHeader(b) }
