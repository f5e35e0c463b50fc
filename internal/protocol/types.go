package protocol

import (
	"fmt"
	"sync"
)

// MessageType is the stable wire tag identifying a message schema. Values are
// part of the wire contract and never change once assigned.
type MessageType int32

const Unspecified MessageType = 0

// Role classifies a message type within the exchange.
type Role uint8

const (
	RoleRequest Role = iota + 1
	RoleReply
	RoleNotification
)

func (r Role) String() string {
	switch r {
	case RoleRequest:
		return "request"
	case RoleReply:
		return "reply"
	case RoleNotification:
		return "notification"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Reserved property names shared by every message.
const (
	PropRequestID = "RequestId"
	PropError     = "Error"
)

var typeNames sync.Map // MessageType -> string

func (t MessageType) String() string {
	if name, ok := typeNames.Load(t); ok {
		return name.(string)
	}
	return fmt.Sprintf("type(%d)", int32(t))
}
