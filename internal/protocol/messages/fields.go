package messages

import (
	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// Property names shared by more than one message.
const (
	propDomain     = "Domain"
	propWorkflowID = "WorkflowId"
	propRunID      = "RunId"
	propContextID  = "ContextId"
	propResult     = "Result"
	propArgs       = "Args"
	propTaskToken  = "TaskToken"
	propActivityID = "ActivityId"
	propName       = "Name"
)

// WorkflowRef addresses one workflow execution. An empty RunID means the
// latest run.
type WorkflowRef struct {
	Domain     string
	WorkflowID string
	RunID      string
}

func (r *WorkflowRef) writeRef(b *bag.Bag) {
	b.SetString(propDomain, r.Domain)
	b.SetString(propWorkflowID, r.WorkflowID)
	b.SetString(propRunID, r.RunID)
}

func (r *WorkflowRef) readRef(b *bag.Bag) {
	r.Domain = b.GetString(propDomain)
	r.WorkflowID = b.GetString(propWorkflowID)
	r.RunID = b.GetString(propRunID)
}

// ContextRef identifies the proxy-side workflow or activity context a
// message belongs to.
type ContextRef struct {
	ContextID int64
}

func (r *ContextRef) writeContext(b *bag.Bag) {
	b.SetInt(propContextID, r.ContextID)
}

func (r *ContextRef) readContext(b *bag.Bag) {
	r.ContextID = b.GetInt(propContextID)
}

// cloneAs returns a fresh *T populated through m.CopyTo.
func cloneAs[T any, P interface {
	*T
	protocol.Message
}](m P) protocol.Message {
	c := P(new(T))
	m.CopyTo(c)
	return c
}

func readJSON[T any](b *bag.Bag, name string) (*T, error) {
	var v T
	ok, err := b.GetJSON(name, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// writeJSON stores v; every JSON type in this package marshals cleanly.
func writeJSON(b *bag.Bag, name string, v any) {
	_ = b.SetJSON(name, v)
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
