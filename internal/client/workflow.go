package client

import (
	"context"

	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
)

// StartWorkflow starts a run of workflow in domain. An empty domain uses the
// connect-time default.
func (c *Client) StartWorkflow(ctx context.Context, domain, workflowID, workflow string, args []byte, opts StartWorkflowOptions) (WorkflowExecution, error) {
	reply, err := call[*messages.WorkflowExecuteReply](ctx, c, &messages.WorkflowExecuteRequest{
		Domain:     c.domain(domain),
		WorkflowID: workflowID,
		Workflow:   workflow,
		Args:       args,
		Options:    toStartOptions(opts),
	})
	if err != nil {
		return WorkflowExecution{}, err
	}
	return fromExecution(reply.Execution), nil
}

func (c *Client) SignalWorkflow(ctx context.Context, domain string, exec WorkflowExecution, signal string, args []byte) error {
	_, err := call[*messages.WorkflowSignalReply](ctx, c, &messages.WorkflowSignalRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
		SignalName:  signal,
		SignalArgs:  args,
	})
	return err
}

func (c *Client) QueryWorkflow(ctx context.Context, domain string, exec WorkflowExecution, query string, args []byte) ([]byte, error) {
	reply, err := read[*messages.WorkflowQueryReply](ctx, c, &messages.WorkflowQueryRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
		QueryName:   query,
		QueryArgs:   args,
	})
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

// TerminateWorkflow ends a run. Waiters on GetWorkflowResult see a
// TerminatedError carrying reason.
func (c *Client) TerminateWorkflow(ctx context.Context, domain string, exec WorkflowExecution, reason string, details []byte) error {
	_, err := call[*messages.WorkflowTerminateReply](ctx, c, &messages.WorkflowTerminateRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
		Reason:      reason,
		Details:     details,
	})
	return err
}

func (c *Client) DescribeWorkflowExecution(ctx context.Context, domain string, exec WorkflowExecution) (WorkflowDescription, error) {
	reply, err := read[*messages.WorkflowDescribeExecutionReply](ctx, c, &messages.WorkflowDescribeExecutionRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
	})
	if err != nil {
		return WorkflowDescription{}, err
	}
	return fromExecutionDescription(reply.Details), nil
}

// SetWorkflowCacheSize sets how many executions the proxy keeps cached.
func (c *Client) SetWorkflowCacheSize(ctx context.Context, size int64) error {
	_, err := call[*messages.WorkflowSetCacheSizeReply](ctx, c, &messages.WorkflowSetCacheSizeRequest{Size: size})
	return err
}

// GetWorkflowResult blocks until the run completes. Only ctx bounds the wait.
func (c *Client) GetWorkflowResult(ctx context.Context, domain string, exec WorkflowExecution) ([]byte, error) {
	reply, err := call[*messages.WorkflowGetResultReply](ctx, c, &messages.WorkflowGetResultRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
	}, session.WithoutTimeout())
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

// GetVersion records or replays a versioning decision for changeID inside
// the workflow context.
func (c *Client) GetVersion(ctx context.Context, contextID int64, changeID string, minSupported, maxSupported int64) (int64, error) {
	req := &messages.WorkflowGetVersionRequest{
		ChangeID:     changeID,
		MinSupported: minSupported,
		MaxSupported: maxSupported,
	}
	req.ContextID = contextID
	reply, err := call[*messages.WorkflowGetVersionReply](ctx, c, req)
	if err != nil {
		return 0, err
	}
	return reply.Version, nil
}

// MutableSideEffect records value under id and returns what the history
// holds, which differs from value on replay.
func (c *Client) MutableSideEffect(ctx context.Context, contextID int64, id string, value []byte) ([]byte, error) {
	req := &messages.WorkflowMutableRequest{MutableID: id, Result: value}
	req.ContextID = contextID
	reply, err := call[*messages.WorkflowMutableReply](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

func (c *Client) domain(d string) string {
	if d == "" {
		return c.cfg.Domain
	}
	return d
}
