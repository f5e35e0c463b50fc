package proxysim

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/messages"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/google/uuid"
)

type workflowRecord struct {
	domain    string
	id        string
	runID     string
	workflow  string
	taskList  string
	args      []byte
	contextID int64
	sess      *session.Session
	startedAt time.Time
	cancel    context.CancelFunc

	// Guarded by Simulator.mu until done is closed.
	status   string
	closedAt time.Time

	done    chan struct{}
	result  []byte
	failure *protocol.RemoteError
}

func (r *workflowRecord) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

type activityRecord struct {
	token      string
	activityID string
	contextID  int64
	domain     string
	workflowID string

	done    chan struct{}
	result  []byte
	failure *protocol.RemoteError
}

func (s *Simulator) register(sess *session.Session) error {
	handlers := map[protocol.MessageType]session.Handler{
		messages.TagConnectRequest:                     s.withSession(sess, s.handleConnect),
		messages.TagHeartbeatRequest:                   s.handleHeartbeat,
		messages.TagTerminateRequest:                   s.handleTerminate,
		messages.TagCancelRequest:                      s.withSession(sess, s.handleCancel),
		messages.TagDomainRegisterRequest:              s.handleDomainRegister,
		messages.TagDomainDescribeRequest:              s.handleDomainDescribe,
		messages.TagWorkflowExecuteRequest:             s.withSession(sess, s.handleWorkflowExecute),
		messages.TagWorkflowSignalRequest:              s.handleWorkflowSignal,
		messages.TagWorkflowQueryRequest:               s.handleWorkflowQuery,
		messages.TagWorkflowGetResultRequest:           s.withSession(sess, s.handleWorkflowGetResult),
		messages.TagWorkflowGetVersionRequest:          s.handleGetVersion,
		messages.TagWorkflowMutableRequest:             s.handleMutable,
		messages.TagWorkflowTerminateRequest:           s.handleWorkflowTerminate,
		messages.TagWorkflowDescribeExecutionRequest:   s.handleWorkflowDescribe,
		messages.TagWorkflowSetCacheSizeRequest:        s.handleSetCacheSize,
		messages.TagActivityExecuteRequest:             s.withSession(sess, s.handleActivityExecute),
		messages.TagActivityCompleteRequest:            s.handleActivityComplete,
		messages.TagActivityRecordHeartbeatRequest:     s.handleRecordHeartbeat,
		messages.TagActivityGetHeartbeatDetailsRequest: s.handleGetHeartbeatDetails,
	}
	for t, h := range handlers {
		if err := sess.Handle(t, h); err != nil {
			return err
		}
	}
	return nil
}

type sessionHandler func(ctx context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error)

func (s *Simulator) withSession(sess *session.Session, h sessionHandler) session.Handler {
	return func(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
		return h(ctx, sess, msg)
	}
}

const remoteErrorTerminated = "TerminatedError"

func notFound(format string, args ...any) *protocol.RemoteError {
	return protocol.NewRemoteError(protocol.RemoteErrorNotFound, format, args...)
}

func badRequest(format string, args ...any) *protocol.RemoteError {
	return protocol.NewRemoteError(protocol.RemoteErrorBadRequest, format, args...)
}

func (s *Simulator) handleConnect(_ context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.ConnectRequest)
	s.log.Info().Str("identity", req.Identity).Str("domain", req.Domain).Str("session_id", sess.ID()).Msg("client connect")
	if s.cfg.AnnounceConnect {
		go func() {
			note := &messages.LogNotification{
				Level:   "info",
				Message: fmt.Sprintf("connected as %s", req.Identity),
				Source:  "proxysim",
			}
			if err := sess.Notify(context.Background(), note); err != nil {
				s.log.Debug().Err(err).Msg("connect notification not sent")
			}
		}()
	}
	return nil, nil
}

func (s *Simulator) handleHeartbeat(context.Context, protocol.Message) (protocol.Reply, error) {
	return nil, nil
}

func (s *Simulator) handleTerminate(context.Context, protocol.Message) (protocol.Reply, error) {
	s.log.Info().Msg("client requested terminate")
	return nil, nil
}

func (s *Simulator) handleCancel(_ context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.CancelRequest)
	return &messages.CancelReply{WasCancelled: s.cancelInflight(sess, req.TargetRequestID)}, nil
}

func (s *Simulator) registerDomain(name, description, owner string, retention int64) (*domainRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, badRequest("domain name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[name]; ok {
		return nil, protocol.NewRemoteError(protocol.RemoteErrorAlreadyExists, "domain %q already exists", name)
	}
	rec := &domainRecord{retentionDays: retention}
	rec.Name = name
	rec.UUID = uuid.NewString()
	rec.Description = description
	rec.OwnerEmail = owner
	rec.Status = "REGISTERED"
	s.domains[name] = rec
	return rec, nil
}

func (s *Simulator) handleDomainRegister(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.DomainRegisterRequest)
	rec, err := s.registerDomain(req.Name, req.Description, req.OwnerEmail, req.RetentionDays)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("domain", rec.Name).Str("uuid", rec.UUID).Msg("domain registered")
	return nil, nil
}

func (s *Simulator) handleDomainDescribe(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.DomainDescribeRequest)
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domainRecord
	switch {
	case req.Name != nil:
		found = s.domains[*req.Name]
	case req.UUID != nil:
		for _, d := range s.domains {
			if d.UUID == *req.UUID {
				found = d
				break
			}
		}
	default:
		return nil, badRequest("name or uuid required")
	}
	if found == nil {
		return nil, notFound("domain not found")
	}
	reply := &messages.DomainDescribeReply{}
	found.DomainDescribeReply.CopyTo(reply)
	return reply, nil
}

func (s *Simulator) handleWorkflowExecute(_ context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowExecuteRequest)
	if strings.TrimSpace(req.Workflow) == "" {
		return nil, badRequest("workflow name required")
	}
	id := req.WorkflowID
	taskList := ""
	if req.Options != nil {
		if id == "" {
			id = req.Options.ID
		}
		taskList = req.Options.TaskList
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	if _, ok := s.domains[req.Domain]; !ok {
		s.mu.Unlock()
		return nil, notFound("domain %q not found", req.Domain)
	}
	key := workflowKey{domain: req.Domain, id: id}
	if prev, ok := s.workflows[key]; ok && !prev.finished() {
		s.mu.Unlock()
		return nil, protocol.NewRemoteError("WorkflowExecutionAlreadyStartedError", "workflow %q is running", id)
	}
	rec := &workflowRecord{
		domain:    req.Domain,
		id:        id,
		runID:     uuid.NewString(),
		workflow:  req.Workflow,
		taskList:  taskList,
		args:      bytes.Clone(req.Args),
		contextID: s.newContextID(),
		sess:      sess,
		startedAt: time.Now(),
		status:    messages.WorkflowStatusRunning,
		done:      make(chan struct{}),
	}
	runCtx, cancel := context.WithCancel(context.Background())
	rec.cancel = cancel
	s.workflows[key] = rec
	s.contexts[rec.contextID] = rec
	s.mu.Unlock()

	go s.runWorkflow(runCtx, rec)
	return &messages.WorkflowExecuteReply{Execution: &messages.Execution{ID: rec.id, RunID: rec.runID}}, nil
}

// runWorkflow pushes one decision task to the client that started the run
// and records the outcome. A terminated run keeps its terminated outcome.
func (s *Simulator) runWorkflow(ctx context.Context, rec *workflowRecord) {
	req := &messages.WorkflowInvokeRequest{
		Name:         rec.workflow,
		Args:         rec.args,
		WorkflowType: rec.workflow,
		TaskList:     rec.taskList,
	}
	req.ContextID = rec.contextID
	req.WorkflowRef = messages.WorkflowRef{Domain: rec.domain, WorkflowID: rec.id, RunID: rec.runID}

	var (
		result  []byte
		failure *protocol.RemoteError
	)
	reply, err := rec.sess.Call(ctx, req, session.WithoutTimeout())
	switch {
	case err != nil:
		failure = protocol.NewRemoteError(protocol.RemoteErrorGeneric, "workflow invoke: %v", err)
	case reply.RemoteError() != nil:
		failure = reply.RemoteError().Clone()
	default:
		result = reply.(*messages.WorkflowInvokeReply).Result
	}
	status := messages.WorkflowStatusCompleted
	if failure != nil {
		status = messages.WorkflowStatusFailed
	}
	if !s.finishWorkflow(rec, status, result, failure) {
		return
	}
	event := s.log.Info().Str("workflow_id", rec.id).Str("run_id", rec.runID)
	if failure != nil {
		event = event.Str("failure", failure.Error())
	}
	event.Msg("workflow finished")
}

// finishWorkflow records the outcome of a run and reports false when the run
// had already finished.
func (s *Simulator) finishWorkflow(rec *workflowRecord, status string, result []byte, failure *protocol.RemoteError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.finished() {
		return false
	}
	rec.status = status
	rec.closedAt = time.Now()
	rec.result = result
	rec.failure = failure
	close(rec.done)
	rec.cancel()
	return true
}

func (s *Simulator) lookupWorkflow(ref messages.WorkflowRef) (*workflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.workflows[workflowKey{domain: ref.Domain, id: ref.WorkflowID}]
	if !ok || (ref.RunID != "" && ref.RunID != rec.runID) {
		return nil, notFound("workflow %q not found", ref.WorkflowID)
	}
	return rec, nil
}

func (s *Simulator) handleWorkflowGetResult(ctx context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowGetResultRequest)
	rec, err := s.lookupWorkflow(req.WorkflowRef)
	if err != nil {
		return nil, err
	}
	ctx, untrack := s.track(ctx, sess, req.RequestID())
	defer untrack()
	select {
	case <-rec.done:
	case <-ctx.Done():
		return nil, protocol.NewRemoteError(protocol.RemoteErrorCancelled, "get-result cancelled")
	}
	if rec.failure != nil {
		return nil, rec.failure.Clone()
	}
	reply := &messages.WorkflowGetResultReply{}
	reply.Result = rec.result
	return reply, nil
}

func (s *Simulator) handleWorkflowTerminate(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowTerminateRequest)
	rec, err := s.lookupWorkflow(req.WorkflowRef)
	if err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = "terminated"
	}
	failure := protocol.NewRemoteError(remoteErrorTerminated, "%s", reason)
	if !s.finishWorkflow(rec, messages.WorkflowStatusTerminated, nil, failure) {
		return nil, protocol.NewRemoteError("WorkflowExecutionCompletedError", "workflow %q already completed", rec.id)
	}
	s.log.Info().Str("workflow_id", rec.id).Str("run_id", rec.runID).Str("reason", reason).Int("details_bytes", len(req.Details)).Msg("workflow terminated")
	return nil, nil
}

func (s *Simulator) handleWorkflowDescribe(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowDescribeExecutionRequest)
	rec, err := s.lookupWorkflow(req.WorkflowRef)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &messages.WorkflowDescribeExecutionReply{Details: &messages.ExecutionDescription{
		Execution:    messages.Execution{ID: rec.id, RunID: rec.runID},
		WorkflowType: rec.workflow,
		TaskList:     rec.taskList,
		Status:       rec.status,
		StartTime:    rec.startedAt,
		CloseTime:    rec.closedAt,
	}}, nil
}

func (s *Simulator) handleSetCacheSize(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowSetCacheSizeRequest)
	if req.Size < 0 {
		return nil, badRequest("cache size %d is negative", req.Size)
	}
	s.mu.Lock()
	s.cacheSize = req.Size
	s.mu.Unlock()
	s.log.Info().Int64("size", req.Size).Msg("workflow cache size set")
	return nil, nil
}

func (s *Simulator) handleWorkflowSignal(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowSignalRequest)
	rec, err := s.lookupWorkflow(req.WorkflowRef)
	if err != nil {
		return nil, err
	}
	if rec.finished() {
		return nil, protocol.NewRemoteError("WorkflowExecutionCompletedError", "workflow %q already completed", rec.id)
	}
	push := &messages.WorkflowSignalInvokeRequest{SignalName: req.SignalName, SignalArgs: req.SignalArgs}
	push.ContextID = rec.contextID
	reply, err := rec.sess.Call(ctx, push)
	if err != nil {
		return nil, protocol.NewRemoteError(protocol.RemoteErrorGeneric, "signal delivery: %v", err)
	}
	if remote := reply.RemoteError(); remote != nil {
		return nil, remote.Clone()
	}
	return nil, nil
}

func (s *Simulator) handleWorkflowQuery(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowQueryRequest)
	rec, err := s.lookupWorkflow(req.WorkflowRef)
	if err != nil {
		return nil, err
	}
	push := &messages.WorkflowQueryInvokeRequest{QueryName: req.QueryName, QueryArgs: req.QueryArgs}
	push.ContextID = rec.contextID
	reply, err := rec.sess.Call(ctx, push)
	if err != nil {
		return nil, protocol.NewRemoteError(protocol.RemoteErrorGeneric, "query delivery: %v", err)
	}
	if remote := reply.RemoteError(); remote != nil {
		return nil, remote.Clone()
	}
	out := &messages.WorkflowQueryReply{}
	out.Result = reply.(*messages.WorkflowQueryInvokeReply).Result
	return out, nil
}

// handleGetVersion returns the recorded version for the change, recording
// MaxSupported the first time it is asked.
func (s *Simulator) handleGetVersion(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowGetVersionRequest)
	if req.MinSupported > req.MaxSupported {
		return nil, badRequest("min version %d above max %d", req.MinSupported, req.MaxSupported)
	}
	key := contextKey{contextID: req.ContextID, name: req.ChangeID}
	s.mu.Lock()
	version, ok := s.versions[key]
	if !ok {
		version = req.MaxSupported
		s.versions[key] = version
	}
	s.mu.Unlock()
	if version < req.MinSupported || version > req.MaxSupported {
		return nil, badRequest("version %d for %q outside [%d, %d]", version, req.ChangeID, req.MinSupported, req.MaxSupported)
	}
	return &messages.WorkflowGetVersionReply{Version: version}, nil
}

func (s *Simulator) handleMutable(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.WorkflowMutableRequest)
	key := contextKey{contextID: req.ContextID, name: req.MutableID}
	s.mu.Lock()
	value, ok := s.mutables[key]
	if !ok {
		value = bytes.Clone(req.Result)
		s.mutables[key] = value
	}
	s.mu.Unlock()
	reply := &messages.WorkflowMutableReply{}
	reply.Result = bytes.Clone(value)
	return reply, nil
}

func (s *Simulator) handleActivityExecute(ctx context.Context, sess *session.Session, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.ActivityExecuteRequest)
	rec := &activityRecord{
		token:     uuid.NewString(),
		contextID: s.newContextID(),
		done:      make(chan struct{}),
	}
	if req.Options != nil {
		rec.activityID = req.Options.ActivityID
	}
	s.mu.Lock()
	if wf, ok := s.contexts[req.ContextID]; ok {
		rec.domain, rec.workflowID = wf.domain, wf.id
	}
	s.activities[rec.token] = rec
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.activities, rec.token)
		s.mu.Unlock()
	}()

	ctx, untrack := s.track(ctx, sess, req.RequestID())
	defer untrack()

	push := &messages.ActivityInvokeRequest{Activity: req.Activity, Args: req.Args, TaskToken: []byte(rec.token)}
	push.ContextID = rec.contextID
	reply, err := sess.Call(ctx, push, session.WithoutTimeout())
	if err != nil {
		if ctx.Err() != nil {
			s.stopActivity(sess, rec)
			return nil, protocol.NewRemoteError(protocol.RemoteErrorCancelled, "activity %q cancelled", req.Activity)
		}
		return nil, protocol.NewRemoteError(protocol.RemoteErrorGeneric, "activity invoke: %v", err)
	}

	remote := reply.RemoteError()
	switch {
	case remote != nil && remote.Type == protocol.RemoteErrorResultPending:
		select {
		case <-rec.done:
		case <-ctx.Done():
			s.stopActivity(sess, rec)
			return nil, protocol.NewRemoteError(protocol.RemoteErrorCancelled, "activity %q cancelled", req.Activity)
		}
	case remote != nil:
		return nil, remote.Clone()
	default:
		s.completeActivity(rec, reply.(*messages.ActivityInvokeReply).Result, nil)
	}

	if rec.failure != nil {
		return nil, rec.failure
	}
	out := &messages.ActivityExecuteReply{}
	out.Result = rec.result
	return out, nil
}

// stopActivity tells the client a running activity is being abandoned.
func (s *Simulator) stopActivity(sess *session.Session, rec *activityRecord) {
	push := &messages.ActivityStoppingRequest{ActivityID: rec.activityID}
	push.ContextID = rec.contextID
	ctx, cancel := context.WithTimeout(context.Background(), sess.Config().WriteTimeout)
	defer cancel()
	if _, err := sess.Call(ctx, push); err != nil {
		s.log.Debug().Err(err).Int64("context_id", rec.contextID).Msg("activity stopping not delivered")
	}
}

// completeActivity reports false when the activity was already completed.
func (s *Simulator) completeActivity(rec *activityRecord, result []byte, failure *protocol.RemoteError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-rec.done:
		return false
	default:
	}
	rec.result = bytes.Clone(result)
	rec.failure = failure.Clone()
	close(rec.done)
	return true
}

func (s *Simulator) findActivity(token []byte, ref messages.WorkflowRef, activityID string) *activityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(token) > 0 {
		return s.activities[string(token)]
	}
	for _, rec := range s.activities {
		if rec.activityID != "" && rec.activityID == activityID &&
			rec.domain == ref.Domain && rec.workflowID == ref.WorkflowID {
			return rec
		}
	}
	return nil
}

func (s *Simulator) handleActivityComplete(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.ActivityCompleteRequest)
	rec := s.findActivity(req.TaskToken, req.WorkflowRef, req.ActivityID)
	if rec == nil {
		return nil, notFound("activity not found")
	}
	if !s.completeActivity(rec, req.Result, req.Failure) {
		return nil, badRequest("activity already completed")
	}
	return nil, nil
}

func (s *Simulator) handleRecordHeartbeat(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.ActivityRecordHeartbeatRequest)
	contextID := req.ContextID
	if len(req.TaskToken) > 0 {
		if rec := s.findActivity(req.TaskToken, messages.WorkflowRef{}, ""); rec != nil {
			contextID = rec.contextID
		}
	}
	if contextID == 0 {
		return nil, notFound("activity not found")
	}
	s.mu.Lock()
	s.heartbeats[contextID] = bytes.Clone(req.Details)
	s.mu.Unlock()
	return nil, nil
}

func (s *Simulator) handleGetHeartbeatDetails(_ context.Context, msg protocol.Message) (protocol.Reply, error) {
	req := msg.(*messages.ActivityGetHeartbeatDetailsRequest)
	s.mu.Lock()
	details := bytes.Clone(s.heartbeats[req.ContextID])
	s.mu.Unlock()
	return &messages.ActivityGetHeartbeatDetailsReply{Details: details}, nil
}
