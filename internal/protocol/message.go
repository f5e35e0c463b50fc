package protocol

import (
	"fmt"

	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// Message is the capability set every concrete message type implements.
// Fields are plain struct fields; the property bag is only touched by
// WriteProps/ReadProps at the serialization boundary.
type Message interface {
	Type() MessageType
	// Clone returns a deep copy of the same concrete type.
	Clone() Message
	// CopyTo copies shared header fields into any target carrying the same
	// header, then the type-specific fields when target has the same type.
	CopyTo(target Message)
	WriteProps(b *bag.Bag)
	ReadProps(b *bag.Bag) error
}

// Correlated messages carry a request id.
type Correlated interface {
	RequestID() int64
	SetRequestID(id int64)
}

// Request is a message that expects exactly one reply of ReplyType.
type Request interface {
	Message
	Correlated
	ReplyType() MessageType
}

// Reply answers a Request and may carry a remote application error.
type Reply interface {
	Message
	Correlated
	RemoteError() *RemoteError
	SetRemoteError(err *RemoteError)
}

// RequestHeader is the field set shared by all requests.
type RequestHeader struct {
	ID int64
}

func (h *RequestHeader) RequestID() int64      { return h.ID }
func (h *RequestHeader) SetRequestID(id int64) { h.ID = id }
func (h *RequestHeader) requestHeader() *RequestHeader {
	return h
}

func (h *RequestHeader) WriteHeader(b *bag.Bag) {
	b.SetInt(PropRequestID, h.ID)
}

func (h *RequestHeader) ReadHeader(b *bag.Bag) {
	h.ID = b.GetInt(PropRequestID)
}

// ReplyHeader is the field set shared by all replies.
type ReplyHeader struct {
	ID    int64
	Error *RemoteError
}

func (h *ReplyHeader) RequestID() int64              { return h.ID }
func (h *ReplyHeader) SetRequestID(id int64)         { h.ID = id }
func (h *ReplyHeader) RemoteError() *RemoteError     { return h.Error }
func (h *ReplyHeader) SetRemoteError(e *RemoteError) { h.Error = e }
func (h *ReplyHeader) replyHeader() *ReplyHeader {
	return h
}

func (h *ReplyHeader) WriteHeader(b *bag.Bag) {
	b.SetInt(PropRequestID, h.ID)
	// RemoteError always marshals; nil becomes a null string.
	_ = b.SetJSON(PropError, h.Error)
}

func (h *ReplyHeader) ReadHeader(b *bag.Bag) error {
	h.ID = b.GetInt(PropRequestID)
	h.Error = nil
	var e RemoteError
	ok, err := b.GetJSON(PropError, &e)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if ok {
		h.Error = &e
	}
	return nil
}

type requestHeaded interface{ requestHeader() *RequestHeader }
type replyHeaded interface{ replyHeader() *ReplyHeader }

// CopyHeader copies the shared header of src into target when both carry the
// same header kind. Concrete CopyTo implementations call it before copying
// their own fields.
func CopyHeader(src, target Message) {
	if s, ok := src.(requestHeaded); ok {
		if t, ok := target.(requestHeaded); ok {
			*t.requestHeader() = *s.requestHeader()
		}
		return
	}
	if s, ok := src.(replyHeaded); ok {
		if t, ok := target.(replyHeaded); ok {
			h := s.replyHeader()
			*t.replyHeader() = ReplyHeader{ID: h.ID, Error: h.Error.Clone()}
		}
	}
}

// RetryMode selects how CloneRequest treats the request id.
type RetryMode uint8

const (
	// ResendSameID keeps the request id: a literal re-send of the same call.
	ResendSameID RetryMode = iota + 1
	// NewAttempt clears the request id so the session assigns a fresh one.
	NewAttempt
)

// CloneRequest deep-copies req for a retry. The mode has no default.
func CloneRequest(req Request, mode RetryMode) (Request, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidDescriptor)
	}
	c, ok := req.Clone().(Request)
	if !ok {
		return nil, fmt.Errorf("%w: %s clone is not a request", ErrNotARequest, req.Type())
	}
	switch mode {
	case ResendSameID:
	case NewAttempt:
		c.SetRequestID(0)
	default:
		return nil, fmt.Errorf("protocol: CloneRequest: invalid retry mode %d", mode)
	}
	return c, nil
}
