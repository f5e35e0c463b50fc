package messages

import "github.com/danmuck/proxywire/internal/protocol"

// Wire tags. Requests are odd, their bound replies follow them. Values are
// part of the wire contract with the proxy.
const (
	TagConnectRequest   protocol.MessageType = 1
	TagConnectReply     protocol.MessageType = 2
	TagTerminateRequest protocol.MessageType = 3
	TagTerminateReply   protocol.MessageType = 4
	TagHeartbeatRequest protocol.MessageType = 5
	TagHeartbeatReply   protocol.MessageType = 6
	TagCancelRequest    protocol.MessageType = 7
	TagCancelReply      protocol.MessageType = 8

	TagDomainDescribeRequest protocol.MessageType = 9
	TagDomainDescribeReply   protocol.MessageType = 10
	TagDomainRegisterRequest protocol.MessageType = 11
	TagDomainRegisterReply   protocol.MessageType = 12
)

const (
	TagWorkflowExecuteRequest      protocol.MessageType = 101
	TagWorkflowExecuteReply        protocol.MessageType = 102
	TagWorkflowSignalRequest       protocol.MessageType = 103
	TagWorkflowSignalReply         protocol.MessageType = 104
	TagWorkflowQueryRequest        protocol.MessageType = 105
	TagWorkflowQueryReply          protocol.MessageType = 106
	TagWorkflowGetResultRequest    protocol.MessageType = 107
	TagWorkflowGetResultReply      protocol.MessageType = 108
	TagWorkflowGetVersionRequest   protocol.MessageType = 109
	TagWorkflowGetVersionReply     protocol.MessageType = 110
	TagWorkflowMutableRequest      protocol.MessageType = 111
	TagWorkflowMutableReply        protocol.MessageType = 112
	TagWorkflowInvokeRequest       protocol.MessageType = 113
	TagWorkflowInvokeReply         protocol.MessageType = 114
	TagWorkflowSignalInvokeRequest protocol.MessageType = 115
	TagWorkflowSignalInvokeReply   protocol.MessageType = 116
	TagWorkflowQueryInvokeRequest  protocol.MessageType = 117
	TagWorkflowQueryInvokeReply    protocol.MessageType = 118

	TagWorkflowTerminateRequest         protocol.MessageType = 119
	TagWorkflowTerminateReply           protocol.MessageType = 120
	TagWorkflowDescribeExecutionRequest protocol.MessageType = 121
	TagWorkflowDescribeExecutionReply   protocol.MessageType = 122
	TagWorkflowSetCacheSizeRequest      protocol.MessageType = 123
	TagWorkflowSetCacheSizeReply        protocol.MessageType = 124
)

const (
	TagActivityExecuteRequest             protocol.MessageType = 201
	TagActivityExecuteReply               protocol.MessageType = 202
	TagActivityCompleteRequest            protocol.MessageType = 203
	TagActivityCompleteReply              protocol.MessageType = 204
	TagActivityRecordHeartbeatRequest     protocol.MessageType = 205
	TagActivityRecordHeartbeatReply       protocol.MessageType = 206
	TagActivityGetHeartbeatDetailsRequest protocol.MessageType = 207
	TagActivityGetHeartbeatDetailsReply   protocol.MessageType = 208
	TagActivityInvokeRequest              protocol.MessageType = 209
	TagActivityInvokeReply                protocol.MessageType = 210
	TagActivityStoppingRequest            protocol.MessageType = 211
	TagActivityStoppingReply              protocol.MessageType = 212
)

const TagLogNotification protocol.MessageType = 301
