package session

import (
	"sort"
	"sync"
	"time"

	"github.com/danmuck/proxywire/internal/observability"
	"github.com/danmuck/proxywire/internal/protocol"
)

// PendingCall is a snapshot of one correlation table entry.
type PendingCall struct {
	RequestID   int64
	RequestType protocol.MessageType
	ReplyType   protocol.MessageType
	SubmittedAt time.Time
	// Deadline is zero for calls without a timeout.
	Deadline time.Time
}

type callResult struct {
	reply protocol.Reply
	err   error
}

type pendingCall struct {
	PendingCall
	done chan callResult
}

func newPendingCall(info PendingCall) *pendingCall {
	return &pendingCall{PendingCall: info, done: make(chan callResult, 1)}
}

// finish delivers the single result. Only the goroutine that removed the
// entry from the table may call it, so the buffered send never blocks.
func (c *pendingCall) finish(reply protocol.Reply, err error) {
	c.done <- callResult{reply: reply, err: err}
}

// pendingTable is the correlation table: at most one live entry per
// request id, shared by the send path, the reader and cancelling callers.
type pendingTable struct {
	mu     sync.Mutex
	items  map[int64]*pendingCall
	closed error
	idle   []chan struct{}
}

func newPendingTable() *pendingTable {
	return &pendingTable{items: make(map[int64]*pendingCall)}
}

func (t *pendingTable) insert(c *pendingCall) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed != nil {
		return t.closed
	}
	if _, ok := t.items[c.RequestID]; ok {
		return protocol.ErrDuplicateRequestID
	}
	t.items[c.RequestID] = c
	observability.AddPendingCalls(1)
	return nil
}

// take removes and returns the entry for id.
func (t *pendingTable) take(id int64) (*pendingCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.items[id]
	if !ok {
		return nil, false
	}
	delete(t.items, id)
	observability.AddPendingCalls(-1)
	if len(t.items) == 0 {
		t.notifyIdleLocked()
	}
	return c, true
}

// closeAll rejects future inserts with err and returns every live entry.
func (t *pendingTable) closeAll(err error) []*pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = err
	out := make([]*pendingCall, 0, len(t.items))
	for id, c := range t.items {
		out = append(out, c)
		delete(t.items, id)
	}
	observability.AddPendingCalls(-len(out))
	t.notifyIdleLocked()
	return out
}

// whenIdle returns a channel closed once the table is empty.
func (t *pendingTable) whenIdle() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan struct{})
	if len(t.items) == 0 {
		close(ch)
		return ch
	}
	t.idle = append(t.idle, ch)
	return ch
}

func (t *pendingTable) notifyIdleLocked() {
	for _, ch := range t.idle {
		close(ch)
	}
	t.idle = nil
}

func (t *pendingTable) has(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.items[id]
	return ok
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *pendingTable) list() []PendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PendingCall, 0, len(t.items))
	for _, c := range t.items {
		out = append(out, c.PendingCall)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestID < out[j].RequestID
	})
	return out
}
