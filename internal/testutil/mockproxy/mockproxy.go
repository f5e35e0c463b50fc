// Package mockproxy is a scripted wire peer for session and client tests. It
// sits on the far end of an in-memory pipe and lets a test read what the
// local side sent and write arbitrary frames back, including malformed ones.
package mockproxy

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
	"github.com/danmuck/proxywire/internal/protocol/frame"
)

const defaultWait = 5 * time.Second

type Peer struct {
	t    testing.TB
	conn net.Conn
	reg  *protocol.Registry
}

// New returns the local end of the pipe and the scripted peer on the other.
func New(t testing.TB, reg *protocol.Registry) (net.Conn, *Peer) {
	t.Helper()
	local, remote := net.Pipe()
	p := &Peer{t: t, conn: remote, reg: reg}
	t.Cleanup(func() { _ = remote.Close() })
	return local, p
}

func (p *Peer) Close() error { return p.conn.Close() }

// ReadPayload reads one raw frame payload.
func (p *Peer) ReadPayload() []byte {
	p.t.Helper()
	_ = p.conn.SetReadDeadline(time.Now().Add(defaultWait))
	payload, err := frame.ReadFrame(p.conn, frame.DefaultLimits())
	if err != nil {
		p.t.Fatalf("mockproxy: read frame: %v", err)
	}
	return payload
}

// Read reads and decodes one message.
func (p *Peer) Read() protocol.Message {
	p.t.Helper()
	msg, err := protocol.DecodeMessage(p.reg, p.ReadPayload())
	if err != nil {
		p.t.Fatalf("mockproxy: decode: %v", err)
	}
	return msg
}

// ReadRequest reads one message and requires it to be a request.
func (p *Peer) ReadRequest() protocol.Request {
	p.t.Helper()
	msg := p.Read()
	req, ok := msg.(protocol.Request)
	if !ok {
		p.t.Fatalf("mockproxy: expected request, got %s", msg.Type())
	}
	return req
}

// ExpectClosed waits for the local side to close the pipe.
func (p *Peer) ExpectClosed() {
	p.t.Helper()
	_ = p.conn.SetReadDeadline(time.Now().Add(defaultWait))
	if _, err := frame.ReadFrame(p.conn, frame.DefaultLimits()); err == nil {
		p.t.Fatalf("mockproxy: expected closed channel, read a frame")
	}
}

func (p *Peer) Send(msg protocol.Message) {
	p.t.Helper()
	payload, err := protocol.EncodeMessage(msg)
	if err != nil {
		p.t.Fatalf("mockproxy: encode %s: %v", msg.Type(), err)
	}
	p.SendPayload(payload)
}

// ReplyTo answers req with reply under req's id.
func (p *Peer) ReplyTo(req protocol.Request, reply protocol.Reply) {
	p.t.Helper()
	reply.SetRequestID(req.RequestID())
	p.Send(reply)
}

// SendBag writes a frame with an arbitrary tag and property bag.
func (p *Peer) SendBag(tag protocol.MessageType, b *bag.Bag) {
	p.t.Helper()
	body, err := bag.Encode(b)
	if err != nil {
		p.t.Fatalf("mockproxy: encode bag: %v", err)
	}
	payload := make([]byte, protocol.TagSize, protocol.TagSize+len(body))
	binary.BigEndian.PutUint32(payload, uint32(tag))
	p.SendPayload(append(payload, body...))
}

func (p *Peer) SendPayload(payload []byte) {
	p.t.Helper()
	p.SendRaw(mustAppend(p.t, payload))
}

// SendRaw writes bytes as-is, bypassing framing.
func (p *Peer) SendRaw(b []byte) {
	p.t.Helper()
	_ = p.conn.SetWriteDeadline(time.Now().Add(defaultWait))
	if _, err := p.conn.Write(b); err != nil {
		p.t.Fatalf("mockproxy: write: %v", err)
	}
}

// Answer replies to every incoming request with the reply fn builds, until
// the channel closes. A nil reply leaves the request unanswered. It runs on
// its own goroutine and never fails the test.
func (p *Peer) Answer(fn func(protocol.Request) protocol.Reply) {
	_ = p.conn.SetReadDeadline(time.Time{})
	_ = p.conn.SetWriteDeadline(time.Time{})
	go func() {
		for {
			payload, err := frame.ReadFrame(p.conn, frame.DefaultLimits())
			if err != nil {
				return
			}
			msg, err := protocol.DecodeMessage(p.reg, payload)
			if err != nil {
				continue
			}
			req, ok := msg.(protocol.Request)
			if !ok {
				continue
			}
			reply := fn(req)
			if reply == nil {
				continue
			}
			reply.SetRequestID(req.RequestID())
			encoded, err := protocol.EncodeMessage(reply)
			if err != nil {
				continue
			}
			buf, err := frame.Append(nil, encoded, frame.DefaultLimits())
			if err != nil {
				continue
			}
			if _, err := p.conn.Write(buf); err != nil {
				return
			}
		}
	}()
}

func mustAppend(t testing.TB, payload []byte) []byte {
	t.Helper()
	buf, err := frame.Append(nil, payload, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("mockproxy: frame: %v", err)
	}
	return buf
}
