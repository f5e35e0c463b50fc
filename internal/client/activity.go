package client

import (
	"context"

	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
)

// ExecuteActivity schedules an activity from inside a workflow context and
// waits for its result. The schedule-to-close timeout, when set, bounds the
// wait; otherwise only ctx does.
func (c *Client) ExecuteActivity(ctx context.Context, contextID int64, activity string, args []byte, opts ActivityOptions) ([]byte, error) {
	req := &messages.ActivityExecuteRequest{
		Activity: activity,
		Args:     args,
		Options:  toActivityOptions(opts),
	}
	req.ContextID = contextID
	timeout := session.WithoutTimeout()
	if opts.ScheduleToCloseTimeout > 0 {
		timeout = session.WithTimeout(opts.ScheduleToCloseTimeout)
	}
	reply, err := call[*messages.ActivityExecuteReply](ctx, c, req, timeout)
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

// CompleteActivity completes the activity identified by taskToken. A non-nil
// failure fails it instead; *protocol.RemoteError failures keep their type.
func (c *Client) CompleteActivity(ctx context.Context, taskToken, result []byte, failure error) error {
	_, err := call[*messages.ActivityCompleteReply](ctx, c, &messages.ActivityCompleteRequest{
		TaskToken: taskToken,
		Result:    result,
		Failure:   toFailure(failure),
	})
	return err
}

// CompleteActivityByID completes an activity addressed by workflow and
// activity id rather than task token.
func (c *Client) CompleteActivityByID(ctx context.Context, domain string, exec WorkflowExecution, activityID string, result []byte, failure error) error {
	_, err := call[*messages.ActivityCompleteReply](ctx, c, &messages.ActivityCompleteRequest{
		WorkflowRef: toWorkflowRef(c.domain(domain), exec),
		ActivityID:  activityID,
		Result:      result,
		Failure:     toFailure(failure),
	})
	return err
}

func (c *Client) RecordActivityHeartbeat(ctx context.Context, contextID int64, taskToken, details []byte) error {
	req := &messages.ActivityRecordHeartbeatRequest{TaskToken: taskToken, Details: details}
	req.ContextID = contextID
	_, err := call[*messages.ActivityRecordHeartbeatReply](ctx, c, req)
	return err
}

// GetHeartbeatDetails returns the details recorded by the last heartbeat of
// a previous attempt of the activity, or nil.
func (c *Client) GetHeartbeatDetails(ctx context.Context, contextID int64) ([]byte, error) {
	req := &messages.ActivityGetHeartbeatDetailsRequest{}
	req.ContextID = contextID
	reply, err := read[*messages.ActivityGetHeartbeatDetailsReply](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return reply.Details, nil
}
