package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage   = errors.New("protocol: malformed message")
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrReplyTypeMismatch  = errors.New("protocol: reply type mismatch")
	ErrTimeout            = errors.New("protocol: request timed out")
	ErrCanceled           = errors.New("protocol: request canceled")
	ErrSessionNotStarted  = errors.New("protocol: session not started")
	ErrSessionClosing     = errors.New("protocol: session closing")
	ErrSessionClosed      = errors.New("protocol: session closed")
	ErrDuplicateRequestID = errors.New("protocol: duplicate request id")
	ErrDuplicateType      = errors.New("protocol: duplicate message type registration")
	ErrRegistryFrozen     = errors.New("protocol: registry frozen")
	ErrInvalidDescriptor  = errors.New("protocol: invalid message descriptor")
	ErrNotARequest        = errors.New("protocol: message type is not a request")
)

// ReplyTypeMismatchError reports a reply whose tag differs from the type bound
// to the original request.
type ReplyTypeMismatchError struct {
	RequestID   int64
	RequestType MessageType
	Expected    MessageType
	Actual      MessageType
}

func (e *ReplyTypeMismatchError) Error() string {
	return fmt.Sprintf(
		"protocol: reply type mismatch request_id=%d request=%s expected=%s actual=%s",
		e.RequestID, e.RequestType, e.Expected, e.Actual,
	)
}

func (e *ReplyTypeMismatchError) Unwrap() error {
	return ErrReplyTypeMismatch
}

// PropertyKindError reports a known property carried with the wrong kind.
type PropertyKindError struct {
	MessageType MessageType
	Property    string
	Reason      string
}

func (e PropertyKindError) Error() string {
	return fmt.Sprintf("protocol: message_type=%s property=%q: %s", e.MessageType, e.Property, e.Reason)
}

func (e PropertyKindError) Unwrap() error {
	return ErrMalformedMessage
}

// RemoteError is an application error produced by the workflow engine and
// carried inside a reply's Error property. It is not a transport failure.
type RemoteError struct {
	String string `json:"String"`
	Type   string `json:"Type"`
}

// Remote error types shared by both ends of the wire.
const (
	RemoteErrorGeneric     = "generic"
	RemoteErrorCancelled   = "cancelled"
	RemoteErrorUnsupported = "unsupported"
	RemoteErrorTimeout     = "timeout"
	RemoteErrorClosing     = "closing"
	RemoteErrorMalformed   = "malformed"
	// RemoteErrorResultPending from an activity means it will be completed
	// later through an activity-complete request.
	RemoteErrorResultPending = "result_pending"
	RemoteErrorNotFound      = "EntityNotExistsError"
	RemoteErrorAlreadyExists = "DomainAlreadyExistsError"
	RemoteErrorBadRequest    = "BadRequestError"
)

func NewRemoteError(errType, format string, args ...any) *RemoteError {
	return &RemoteError{String: fmt.Sprintf(format, args...), Type: errType}
}

func (e *RemoteError) Error() string {
	if e.Type == "" {
		return "remote: " + e.String
	}
	return fmt.Sprintf("remote %s: %s", e.Type, e.String)
}

// Clone returns an independent copy; nil stays nil.
func (e *RemoteError) Clone() *RemoteError {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
