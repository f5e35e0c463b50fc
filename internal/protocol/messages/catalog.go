package messages

import (
	"sync"

	"github.com/danmuck/proxywire/internal/protocol"
)

var (
	catalogOnce sync.Once
	catalog     *protocol.Registry
)

// Registry returns the process-wide frozen registry holding the full catalog.
func Registry() *protocol.Registry {
	catalogOnce.Do(func() {
		reg := protocol.NewRegistry()
		Register(reg)
		if err := reg.Freeze(); err != nil {
			panic(err)
		}
		catalog = reg
	})
	return catalog
}

// Register adds every catalog descriptor to reg without freezing it, so
// callers can extend the catalog with their own message types.
func Register(reg *protocol.Registry) {
	reg.MustRegister(controlDescriptors()...)
	reg.MustRegister(domainDescriptors()...)
	reg.MustRegister(workflowDescriptors()...)
	reg.MustRegister(activityDescriptors()...)
}

func pair(
	name string,
	reqTag, replyTag protocol.MessageType,
	newReq, newReply func() protocol.Message,
) []protocol.Descriptor {
	return []protocol.Descriptor{
		{Type: reqTag, Name: name + "Request", Role: protocol.RoleRequest, ReplyType: replyTag, New: newReq},
		{Type: replyTag, Name: name + "Reply", Role: protocol.RoleReply, New: newReply},
	}
}

func controlDescriptors() []protocol.Descriptor {
	var ds []protocol.Descriptor
	ds = append(ds, pair("Connect", TagConnectRequest, TagConnectReply,
		func() protocol.Message { return &ConnectRequest{} },
		func() protocol.Message { return &ConnectReply{} })...)
	terminate := pair("Terminate", TagTerminateRequest, TagTerminateReply,
		func() protocol.Message { return &TerminateRequest{} },
		func() protocol.Message { return &TerminateReply{} })
	terminate[0].Terminates = true
	ds = append(ds, terminate...)
	ds = append(ds, pair("Heartbeat", TagHeartbeatRequest, TagHeartbeatReply,
		func() protocol.Message { return &HeartbeatRequest{} },
		func() protocol.Message { return &HeartbeatReply{} })...)
	ds = append(ds, pair("Cancel", TagCancelRequest, TagCancelReply,
		func() protocol.Message { return &CancelRequest{} },
		func() protocol.Message { return &CancelReply{} })...)
	ds = append(ds, protocol.Descriptor{
		Type: TagLogNotification,
		Name: "LogNotification",
		Role: protocol.RoleNotification,
		New:  func() protocol.Message { return &LogNotification{} },
	})
	return ds
}

func domainDescriptors() []protocol.Descriptor {
	var ds []protocol.Descriptor
	ds = append(ds, pair("DomainDescribe", TagDomainDescribeRequest, TagDomainDescribeReply,
		func() protocol.Message { return &DomainDescribeRequest{} },
		func() protocol.Message { return &DomainDescribeReply{} })...)
	ds = append(ds, pair("DomainRegister", TagDomainRegisterRequest, TagDomainRegisterReply,
		func() protocol.Message { return &DomainRegisterRequest{} },
		func() protocol.Message { return &DomainRegisterReply{} })...)
	return ds
}

func workflowDescriptors() []protocol.Descriptor {
	var ds []protocol.Descriptor
	ds = append(ds, pair("WorkflowExecute", TagWorkflowExecuteRequest, TagWorkflowExecuteReply,
		func() protocol.Message { return &WorkflowExecuteRequest{} },
		func() protocol.Message { return &WorkflowExecuteReply{} })...)
	ds = append(ds, pair("WorkflowSignal", TagWorkflowSignalRequest, TagWorkflowSignalReply,
		func() protocol.Message { return &WorkflowSignalRequest{} },
		func() protocol.Message { return &WorkflowSignalReply{} })...)
	ds = append(ds, pair("WorkflowQuery", TagWorkflowQueryRequest, TagWorkflowQueryReply,
		func() protocol.Message { return &WorkflowQueryRequest{} },
		func() protocol.Message { return &WorkflowQueryReply{} })...)
	ds = append(ds, pair("WorkflowGetResult", TagWorkflowGetResultRequest, TagWorkflowGetResultReply,
		func() protocol.Message { return &WorkflowGetResultRequest{} },
		func() protocol.Message { return &WorkflowGetResultReply{} })...)
	ds = append(ds, pair("WorkflowGetVersion", TagWorkflowGetVersionRequest, TagWorkflowGetVersionReply,
		func() protocol.Message { return &WorkflowGetVersionRequest{} },
		func() protocol.Message { return &WorkflowGetVersionReply{} })...)
	ds = append(ds, pair("WorkflowMutable", TagWorkflowMutableRequest, TagWorkflowMutableReply,
		func() protocol.Message { return &WorkflowMutableRequest{} },
		func() protocol.Message { return &WorkflowMutableReply{} })...)
	ds = append(ds, pair("WorkflowInvoke", TagWorkflowInvokeRequest, TagWorkflowInvokeReply,
		func() protocol.Message { return &WorkflowInvokeRequest{} },
		func() protocol.Message { return &WorkflowInvokeReply{} })...)
	ds = append(ds, pair("WorkflowSignalInvoke", TagWorkflowSignalInvokeRequest, TagWorkflowSignalInvokeReply,
		func() protocol.Message { return &WorkflowSignalInvokeRequest{} },
		func() protocol.Message { return &WorkflowSignalInvokeReply{} })...)
	ds = append(ds, pair("WorkflowQueryInvoke", TagWorkflowQueryInvokeRequest, TagWorkflowQueryInvokeReply,
		func() protocol.Message { return &WorkflowQueryInvokeRequest{} },
		func() protocol.Message { return &WorkflowQueryInvokeReply{} })...)
	ds = append(ds, pair("WorkflowTerminate", TagWorkflowTerminateRequest, TagWorkflowTerminateReply,
		func() protocol.Message { return &WorkflowTerminateRequest{} },
		func() protocol.Message { return &WorkflowTerminateReply{} })...)
	ds = append(ds, pair("WorkflowDescribeExecution", TagWorkflowDescribeExecutionRequest, TagWorkflowDescribeExecutionReply,
		func() protocol.Message { return &WorkflowDescribeExecutionRequest{} },
		func() protocol.Message { return &WorkflowDescribeExecutionReply{} })...)
	ds = append(ds, pair("WorkflowSetCacheSize", TagWorkflowSetCacheSizeRequest, TagWorkflowSetCacheSizeReply,
		func() protocol.Message { return &WorkflowSetCacheSizeRequest{} },
		func() protocol.Message { return &WorkflowSetCacheSizeReply{} })...)
	return ds
}

func activityDescriptors() []protocol.Descriptor {
	var ds []protocol.Descriptor
	ds = append(ds, pair("ActivityExecute", TagActivityExecuteRequest, TagActivityExecuteReply,
		func() protocol.Message { return &ActivityExecuteRequest{} },
		func() protocol.Message { return &ActivityExecuteReply{} })...)
	ds = append(ds, pair("ActivityComplete", TagActivityCompleteRequest, TagActivityCompleteReply,
		func() protocol.Message { return &ActivityCompleteRequest{} },
		func() protocol.Message { return &ActivityCompleteReply{} })...)
	ds = append(ds, pair("ActivityRecordHeartbeat", TagActivityRecordHeartbeatRequest, TagActivityRecordHeartbeatReply,
		func() protocol.Message { return &ActivityRecordHeartbeatRequest{} },
		func() protocol.Message { return &ActivityRecordHeartbeatReply{} })...)
	ds = append(ds, pair("ActivityGetHeartbeatDetails", TagActivityGetHeartbeatDetailsRequest, TagActivityGetHeartbeatDetailsReply,
		func() protocol.Message { return &ActivityGetHeartbeatDetailsRequest{} },
		func() protocol.Message { return &ActivityGetHeartbeatDetailsReply{} })...)
	ds = append(ds, pair("ActivityInvoke", TagActivityInvokeRequest, TagActivityInvokeReply,
		func() protocol.Message { return &ActivityInvokeRequest{} },
		func() protocol.Message { return &ActivityInvokeReply{} })...)
	ds = append(ds, pair("ActivityStopping", TagActivityStoppingRequest, TagActivityStoppingReply,
		func() protocol.Message { return &ActivityStoppingRequest{} },
		func() protocol.Message { return &ActivityStoppingReply{} })...)
	return ds
}
