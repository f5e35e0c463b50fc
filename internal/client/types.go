package client

import "time"

// DomainInfo describes a registered domain.
type DomainInfo struct {
	Name        string
	UUID        string
	Description string
	Status      string
	OwnerEmail  string
}

type RegisterDomainInput struct {
	Name          string
	Description   string
	OwnerEmail    string
	RetentionDays int64
}

// WorkflowExecution identifies one run. An empty RunID addresses the latest
// run of the workflow id.
type WorkflowExecution struct {
	ID    string
	RunID string
}

// WorkflowDescription reports the state of one run. Status is one of the
// messages.WorkflowStatus values; CloseTime is zero while the run is open.
type WorkflowDescription struct {
	Execution    WorkflowExecution
	WorkflowType string
	TaskList     string
	Status       string
	StartTime    time.Time
	CloseTime    time.Time
}

type StartWorkflowOptions struct {
	ID                  string
	TaskList            string
	ExecutionTimeout    time.Duration
	DecisionTaskTimeout time.Duration
	IDReusePolicy       int64
	CronSchedule        string
}

type ActivityOptions struct {
	ActivityID             string
	TaskList               string
	ScheduleToCloseTimeout time.Duration
	ScheduleToStartTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
	WaitForCancellation    bool
}

// WorkflowInvocation asks the client to run one decision task of a workflow.
type WorkflowInvocation struct {
	ContextID    int64
	Domain       string
	Execution    WorkflowExecution
	Name         string
	WorkflowType string
	TaskList     string
	Args         []byte
}

type SignalInvocation struct {
	ContextID  int64
	SignalName string
	Args       []byte
}

type QueryInvocation struct {
	ContextID int64
	QueryName string
	Args      []byte
}

type ActivityInvocation struct {
	ContextID int64
	Activity  string
	Args      []byte
	TaskToken []byte
}

type ActivityStopping struct {
	ContextID  int64
	ActivityID string
}

// LogEntry is a log line forwarded by the proxy.
type LogEntry struct {
	Level   string
	Message string
	Source  string
}
