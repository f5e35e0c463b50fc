package client

import (
	"errors"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
)

// Translation between the public types and wire messages. Each
// function maps fields one to one and never touches request ids.

func toWorkflowRef(domain string, exec WorkflowExecution) messages.WorkflowRef {
	return messages.WorkflowRef{Domain: domain, WorkflowID: exec.ID, RunID: exec.RunID}
}

func fromWorkflowRef(ref messages.WorkflowRef) (string, WorkflowExecution) {
	return ref.Domain, WorkflowExecution{ID: ref.WorkflowID, RunID: ref.RunID}
}

func fromDomainDescribe(m *messages.DomainDescribeReply) DomainInfo {
	return DomainInfo{
		Name:        m.Name,
		UUID:        m.UUID,
		Description: m.Description,
		Status:      m.Status,
		OwnerEmail:  m.OwnerEmail,
	}
}

func toDomainRegister(in RegisterDomainInput) *messages.DomainRegisterRequest {
	return &messages.DomainRegisterRequest{
		Name:          in.Name,
		Description:   in.Description,
		OwnerEmail:    in.OwnerEmail,
		RetentionDays: in.RetentionDays,
	}
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// toStartOptions returns nil for zero options so the property travels as
// null and the proxy applies its own defaults.
func toStartOptions(o StartWorkflowOptions) *messages.StartOptions {
	if o == (StartWorkflowOptions{}) {
		return nil
	}
	return &messages.StartOptions{
		ID:                              o.ID,
		TaskList:                        o.TaskList,
		ExecutionStartToCloseTimeoutSec: seconds(o.ExecutionTimeout),
		DecisionTaskStartToCloseSec:     seconds(o.DecisionTaskTimeout),
		WorkflowIDReusePolicy:           o.IDReusePolicy,
		CronSchedule:                    o.CronSchedule,
	}
}

func fromExecution(e *messages.Execution) WorkflowExecution {
	if e == nil {
		return WorkflowExecution{}
	}
	return WorkflowExecution{ID: e.ID, RunID: e.RunID}
}

func fromExecutionDescription(d *messages.ExecutionDescription) WorkflowDescription {
	if d == nil {
		return WorkflowDescription{}
	}
	return WorkflowDescription{
		Execution:    WorkflowExecution{ID: d.Execution.ID, RunID: d.Execution.RunID},
		WorkflowType: d.WorkflowType,
		TaskList:     d.TaskList,
		Status:       d.Status,
		StartTime:    d.StartTime,
		CloseTime:    d.CloseTime,
	}
}

func toActivityOptions(o ActivityOptions) *messages.ActivityOptions {
	if o == (ActivityOptions{}) {
		return nil
	}
	return &messages.ActivityOptions{
		ActivityID:          o.ActivityID,
		TaskList:            o.TaskList,
		ScheduleToCloseSec:  seconds(o.ScheduleToCloseTimeout),
		ScheduleToStartSec:  seconds(o.ScheduleToStartTimeout),
		StartToCloseSec:     seconds(o.StartToCloseTimeout),
		HeartbeatTimeoutSec: seconds(o.HeartbeatTimeout),
		WaitForCancellation: o.WaitForCancellation,
	}
}

// toFailure converts an activity failure into the wire error document. A
// *protocol.RemoteError keeps its type.
func toFailure(err error) *protocol.RemoteError {
	if err == nil {
		return nil
	}
	var remote *protocol.RemoteError
	if errors.As(err, &remote) {
		return remote.Clone()
	}
	return protocol.NewRemoteError(protocol.RemoteErrorGeneric, "%v", err)
}

func fromWorkflowInvoke(m *messages.WorkflowInvokeRequest) WorkflowInvocation {
	domain, exec := fromWorkflowRef(m.WorkflowRef)
	return WorkflowInvocation{
		ContextID:    m.ContextID,
		Domain:       domain,
		Execution:    exec,
		Name:         m.Name,
		WorkflowType: m.WorkflowType,
		TaskList:     m.TaskList,
		Args:         m.Args,
	}
}

func fromSignalInvoke(m *messages.WorkflowSignalInvokeRequest) SignalInvocation {
	return SignalInvocation{ContextID: m.ContextID, SignalName: m.SignalName, Args: m.SignalArgs}
}

func fromQueryInvoke(m *messages.WorkflowQueryInvokeRequest) QueryInvocation {
	return QueryInvocation{ContextID: m.ContextID, QueryName: m.QueryName, Args: m.QueryArgs}
}

func fromActivityInvoke(m *messages.ActivityInvokeRequest) ActivityInvocation {
	return ActivityInvocation{
		ContextID: m.ContextID,
		Activity:  m.Activity,
		Args:      m.Args,
		TaskToken: m.TaskToken,
	}
}

func fromActivityStopping(m *messages.ActivityStoppingRequest) ActivityStopping {
	return ActivityStopping{ContextID: m.ContextID, ActivityID: m.ActivityID}
}

func fromLog(m *messages.LogNotification) LogEntry {
	return LogEntry{Level: m.Level, Message: m.Message, Source: m.Source}
}
