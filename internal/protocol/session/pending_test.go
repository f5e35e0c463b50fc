package session

import (
	"errors"
	"testing"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
)

func TestPendingTableLifecycle(t *testing.T) {
	testlog.Start(t)
	table := newPendingTable()
	idle := table.whenIdle()
	select {
	case <-idle:
	default:
		t.Fatalf("empty table should be idle")
	}

	if err := table.insert(newPendingCall(PendingCall{RequestID: 2})); err != nil {
		t.Fatalf("insert 2: %v", err)
	}
	if err := table.insert(newPendingCall(PendingCall{RequestID: 1})); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if err := table.insert(newPendingCall(PendingCall{RequestID: 1})); !errors.Is(err, protocol.ErrDuplicateRequestID) {
		t.Fatalf("expected ErrDuplicateRequestID, got %v", err)
	}

	list := table.list()
	if len(list) != 2 {
		t.Fatalf("unexpected list len=%d", len(list))
	}
	if list[0].RequestID != 1 {
		t.Fatalf("list not ordered by id: first=%d", list[0].RequestID)
	}

	idle = table.whenIdle()
	if _, ok := table.take(1); !ok {
		t.Fatalf("missing pending call 1")
	}
	if _, ok := table.take(1); ok {
		t.Fatalf("call 1 taken twice")
	}
	if !table.has(2) {
		t.Fatalf("call 2 should still be pending")
	}

	orphans := table.closeAll(protocol.ErrSessionClosed)
	if len(orphans) != 1 {
		t.Fatalf("unexpected orphans=%d", len(orphans))
	}
	<-idle
	if err := table.insert(newPendingCall(PendingCall{RequestID: 3})); !errors.Is(err, protocol.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after close, got %v", err)
	}
}
