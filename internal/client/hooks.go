package client

import (
	"context"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
)

// Hook registration for proxy-initiated messages. Each hook replaces the
// previous one for the same message. A hook's error is returned to the proxy
// as the reply's Error; return a *protocol.RemoteError to control its type.

type (
	WorkflowFunc         func(ctx context.Context, inv WorkflowInvocation) ([]byte, error)
	SignalFunc           func(ctx context.Context, inv SignalInvocation) error
	QueryFunc            func(ctx context.Context, inv QueryInvocation) ([]byte, error)
	ActivityFunc         func(ctx context.Context, inv ActivityInvocation) ([]byte, error)
	ActivityStoppingFunc func(ctx context.Context, stop ActivityStopping) error
	LogFunc              func(entry LogEntry)
)

func (c *Client) OnWorkflowInvoke(fn WorkflowFunc) error {
	return c.sess.Handle(messages.TagWorkflowInvokeRequest, func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		result, err := fn(ctx, fromWorkflowInvoke(msg.(*messages.WorkflowInvokeRequest)))
		reply := &messages.WorkflowInvokeReply{}
		reply.Result = result
		return reply, err
	})
}

func (c *Client) OnSignalInvoke(fn SignalFunc) error {
	return c.sess.Handle(messages.TagWorkflowSignalInvokeRequest, func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		return nil, fn(ctx, fromSignalInvoke(msg.(*messages.WorkflowSignalInvokeRequest)))
	})
}

func (c *Client) OnQueryInvoke(fn QueryFunc) error {
	return c.sess.Handle(messages.TagWorkflowQueryInvokeRequest, func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		result, err := fn(ctx, fromQueryInvoke(msg.(*messages.WorkflowQueryInvokeRequest)))
		reply := &messages.WorkflowQueryInvokeReply{}
		reply.Result = result
		return reply, err
	})
}

func (c *Client) OnActivityInvoke(fn ActivityFunc) error {
	return c.sess.Handle(messages.TagActivityInvokeRequest, func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		result, err := fn(ctx, fromActivityInvoke(msg.(*messages.ActivityInvokeRequest)))
		reply := &messages.ActivityInvokeReply{}
		reply.Result = result
		return reply, err
	})
}

func (c *Client) OnActivityStopping(fn ActivityStoppingFunc) error {
	return c.sess.Handle(messages.TagActivityStoppingRequest, func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		return nil, fn(ctx, fromActivityStopping(msg.(*messages.ActivityStoppingRequest)))
	})
}

// OnLog receives proxy log notifications. Without a hook they are written
// to the client logger at debug level.
func (c *Client) OnLog(fn LogFunc) error {
	return c.sess.Handle(messages.TagLogNotification, func(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
		fn(fromLog(msg.(*messages.LogNotification)))
		return nil, nil
	})
}

func (c *Client) logToZerolog(entry LogEntry) {
	c.log.Debug().Str("proxy_level", entry.Level).Str("source", entry.Source).Msg(entry.Message)
}
