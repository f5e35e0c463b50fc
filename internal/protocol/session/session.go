package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/proxywire/internal/observability"
	"github.com/danmuck/proxywire/internal/protocol"
	"github.com/danmuck/proxywire/internal/protocol/frame"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrAlreadyStarted = errors.New("session: already started")
	ErrDrainTimeout   = errors.New("session: drain timed out")
	ErrInvalidHandler = errors.New("session: invalid handler registration")
)

// State is the session lifecycle position.
type State int32

const (
	StateOpen State = iota
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Handler serves one peer-initiated message. For requests the returned reply
// is sent back under the request's id; a nil reply sends the empty bound
// reply type. A returned error travels as the reply's RemoteError. The
// return values are ignored for notifications.
type Handler func(ctx context.Context, msg protocol.Message) (protocol.Reply, error)

// Option customizes a Session.
type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.log = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) { s.tracer = tracer }
}

// Session multiplexes correlated calls and peer-initiated messages over one
// already-connected duplex channel. Both ends of the wire use the same type.
type Session struct {
	ch     io.ReadWriteCloser
	reg    *protocol.Registry
	cfg    Config
	log    zerolog.Logger
	id     string
	tracer trace.Tracer

	// mu orders lifecycle transitions against handler admission.
	mu    sync.Mutex
	state atomic.Int32

	nextID  atomic.Int64
	pending *pendingTable
	// writeSlot admits one frame writer at a time; waiting for it honors
	// the writer's context.
	writeSlot chan struct{}

	handlersMu sync.RWMutex
	handlers   map[protocol.MessageType]Handler
	inflight   sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	drainOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// New wraps ch. The session is Open until Start launches the reader.
func New(ch io.ReadWriteCloser, reg *protocol.Registry, cfg Config, opts ...Option) *Session {
	logger, id := observability.SessionLogger("session")
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ch:       ch,
		reg:      reg,
		cfg:      cfg.WithDefaults(),
		log:      logger,
		id:       id,
		tracer:   observability.Tracer(),
		pending:   newPendingTable(),
		writeSlot: make(chan struct{}, 1),
		handlers:  make(map[protocol.MessageType]Handler),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Registry() *protocol.Registry { return s.reg }

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the cause of an abnormal close, nil otherwise.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Pending returns the live correlation entries ordered by request id.
func (s *Session) Pending() []PendingCall {
	return s.pending.list()
}

// Handle registers h for the request or notification tag t, replacing any
// previous handler.
func (s *Session) Handle(t protocol.MessageType, h Handler) error {
	d, err := s.reg.Lookup(t)
	if err != nil {
		return err
	}
	if d.Role == protocol.RoleReply || h == nil {
		return fmt.Errorf("%w: %s", ErrInvalidHandler, d.Name)
	}
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers[t] = h
	return nil
}

func (s *Session) handler(t protocol.MessageType) Handler {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	return s.handlers[t]
}

// Start moves an Open session to Running and launches the reader.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.State() {
	case StateOpen:
	case StateClosed:
		return protocol.ErrSessionClosed
	default:
		return ErrAlreadyStarted
	}
	s.state.Store(int32(StateRunning))
	go s.readLoop()
	s.log.Debug().Msg("session started")
	return nil
}

func (s *Session) sendable() error {
	switch s.State() {
	case StateOpen:
		return protocol.ErrSessionNotStarted
	case StateRunning:
		return nil
	case StateDraining:
		return protocol.ErrSessionClosing
	default:
		return protocol.ErrSessionClosed
	}
}

// CallOption adjusts a single Call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides Config.DefaultCallTimeout for one call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithoutTimeout leaves the call pending until a reply, cancellation of ctx
// or session close. Long-lived requests such as get-result use it.
func WithoutTimeout() CallOption {
	return func(o *callOptions) { o.timeout = 0 }
}

// Call sends req and waits for its bound reply. A zero request id is replaced
// by a session-generated one; a caller-supplied id must not be live. Remote
// application errors arrive inside the reply, not as the returned error.
func (s *Session) Call(ctx context.Context, req protocol.Request, opts ...CallOption) (protocol.Reply, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", protocol.ErrNotARequest)
	}
	if err := s.sendable(); err != nil {
		return nil, err
	}
	desc, err := s.reg.Lookup(req.Type())
	if err != nil {
		return nil, err
	}
	if desc.Role != protocol.RoleRequest {
		return nil, fmt.Errorf("%w: %s", protocol.ErrNotARequest, desc.Name)
	}
	o := callOptions{timeout: s.cfg.DefaultCallTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	info := PendingCall{
		RequestType: desc.Type,
		ReplyType:   desc.ReplyType,
		SubmittedAt: start,
	}
	if o.timeout > 0 {
		info.Deadline = start.Add(o.timeout)
	}
	// Admission and insertion share s.mu with beginDrain, so a call either
	// lands in the table before draining starts or sees ErrSessionClosing.
	s.mu.Lock()
	if err := s.sendable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	call, err := s.register(req, info)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "proxywire.call "+desc.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("proxywire.type", desc.Name),
			attribute.Int64("proxywire.request_id", call.RequestID),
		),
	)
	defer span.End()

	if desc.Terminates {
		s.beginDrain()
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithDeadline(ctx, info.Deadline)
		defer cancel()
	}
	reply, err := s.send(callCtx, call, req)
	if err == nil {
		reply, err = s.await(callCtx, call)
	}

	outcome := callOutcome(reply, err)
	observability.RecordCall(desc.Name, outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.log.Debug().Err(err).Str("type", desc.Name).Int64("request_id", call.RequestID).Msg("call failed")
	}
	return reply, err
}

func (s *Session) register(req protocol.Request, info PendingCall) (*pendingCall, error) {
	id := req.RequestID()
	generated := id == 0
	for {
		if generated {
			id = s.nextID.Add(1)
		}
		info.RequestID = id
		call := newPendingCall(info)
		err := s.pending.insert(call)
		switch {
		case err == nil:
			req.SetRequestID(id)
			return call, nil
		case errors.Is(err, protocol.ErrDuplicateRequestID) && generated:
			continue
		case errors.Is(err, protocol.ErrDuplicateRequestID):
			return nil, fmt.Errorf("%w: %d", err, id)
		default:
			return nil, err
		}
	}
}

// send writes req. When ctx ends before the frame goes out the entry is
// withdrawn and the call fails like an expired wait.
func (s *Session) send(ctx context.Context, call *pendingCall, req protocol.Request) (protocol.Reply, error) {
	err := s.write(ctx, req)
	if err == nil {
		return nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return s.abandon(call, expiredCause(call, ctxErr))
	}
	if _, ok := s.pending.take(call.RequestID); ok {
		return nil, err
	}
	// The entry was already completed or failed; report that instead.
	res := <-call.done
	return res.reply, res.err
}

func (s *Session) await(ctx context.Context, call *pendingCall) (protocol.Reply, error) {
	select {
	case res := <-call.done:
		return res.reply, res.err
	case <-ctx.Done():
	}
	return s.abandon(call, expiredCause(call, ctx.Err()))
}

// abandon withdraws call and fails it with cause, unless a reply or close
// already took the entry.
func (s *Session) abandon(call *pendingCall, cause error) (protocol.Reply, error) {
	if _, ok := s.pending.take(call.RequestID); ok {
		return nil, cause
	}
	res := <-call.done
	return res.reply, res.err
}

func expiredCause(call *pendingCall, ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s request_id=%d: %w", protocol.ErrTimeout, call.RequestType, call.RequestID, ctxErr)
	}
	return fmt.Errorf("%w: %s request_id=%d: %w", protocol.ErrCanceled, call.RequestType, call.RequestID, ctxErr)
}

// Notify sends a notification. It is never answered.
func (s *Session) Notify(ctx context.Context, msg protocol.Message) error {
	if err := s.sendable(); err != nil {
		return err
	}
	desc, err := s.reg.Lookup(msg.Type())
	if err != nil {
		return err
	}
	if desc.Role != protocol.RoleNotification {
		return fmt.Errorf("session: %s is a %s, not a notification", desc.Name, desc.Role)
	}
	return s.write(ctx, msg)
}

// Reply answers a peer-initiated request, echoing its request id. Replies are
// still accepted while draining so in-flight handlers can finish.
func (s *Session) Reply(ctx context.Context, req protocol.Request, reply protocol.Reply) error {
	switch s.State() {
	case StateOpen:
		return protocol.ErrSessionNotStarted
	case StateClosed:
		return protocol.ErrSessionClosed
	}
	expected, err := s.reg.ReplyTypeFor(req.Type())
	if err != nil {
		return err
	}
	if reply.Type() != expected {
		return &protocol.ReplyTypeMismatchError{
			RequestID:   req.RequestID(),
			RequestType: req.Type(),
			Expected:    expected,
			Actual:      reply.Type(),
		}
	}
	reply.SetRequestID(req.RequestID())
	return s.write(ctx, reply)
}

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

type writeResult struct {
	n   int
	err error
}

// write encodes msg and emits it as one frame with a single Write call.
// Waiting for the writer slot and the write itself end with ctx; a frame
// abandoned before any byte went out leaves the stream usable and returns
// ctx.Err(). A partial or failed write closes the session.
func (s *Session) write(ctx context.Context, msg protocol.Message) error {
	payload, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	buf, err := frame.Append(nil, payload, s.cfg.limits())
	if err != nil {
		return err
	}

	select {
	case s.writeSlot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return protocol.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		<-s.writeSlot
		return err
	}

	if dl, ok := s.ch.(writeDeadliner); ok {
		n, err := s.writeInterruptible(ctx, dl, buf)
		<-s.writeSlot
		return s.wrote(ctx, msg, n, err)
	}
	return s.writeDetached(ctx, msg, buf)
}

// writeInterruptible bounds the write by Config.WriteTimeout and pulls the
// write deadline into the past once ctx ends.
func (s *Session) writeInterruptible(ctx context.Context, dl writeDeadliner, buf []byte) (int, error) {
	var deadline time.Time
	if s.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(s.cfg.WriteTimeout)
	}
	_ = dl.SetWriteDeadline(deadline)

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = dl.SetWriteDeadline(time.Unix(1, 0))
		close(interrupted)
	})
	n, err := s.ch.Write(buf)
	if !stop() {
		<-interrupted
	}
	return n, err
}

// writeDetached serves channels without write deadlines. The Write runs in
// its own goroutine, which keeps the writer slot until it returns, so a
// caller whose ctx ends can leave without tearing the frame.
func (s *Session) writeDetached(ctx context.Context, msg protocol.Message, buf []byte) error {
	res := make(chan writeResult, 1)
	go func() {
		n, err := s.ch.Write(buf)
		<-s.writeSlot
		res <- writeResult{n: n, err: err}
	}()

	var expired <-chan time.Time
	if s.cfg.WriteTimeout > 0 {
		timer := time.NewTimer(s.cfg.WriteTimeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case r := <-res:
		return s.wrote(ctx, msg, r.n, r.err)
	case <-ctx.Done():
		go func() {
			r := <-res
			_ = s.wrote(context.Background(), msg, r.n, r.err)
		}()
		return ctx.Err()
	case <-expired:
		werr := fmt.Errorf("session: write %s: %w", msg.Type(), os.ErrDeadlineExceeded)
		s.closeWithError(werr)
		return fmt.Errorf("%w: %w", protocol.ErrSessionClosed, werr)
	}
}

func (s *Session) wrote(ctx context.Context, msg protocol.Message, n int, err error) error {
	if err == nil {
		observability.RecordFrame("out")
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && n == 0 {
		s.log.Debug().Err(err).Str("type", msg.Type().String()).Msg("frame abandoned before write")
		return ctxErr
	}
	if s.State() == StateClosed {
		return protocol.ErrSessionClosed
	}
	werr := fmt.Errorf("session: write %s: %w", msg.Type(), err)
	s.closeWithError(werr)
	return fmt.Errorf("%w: %w", protocol.ErrSessionClosed, werr)
}

func (s *Session) readLoop() {
	limits := s.cfg.limits()
	for {
		payload, err := frame.ReadFrame(s.ch, limits)
		if err != nil {
			s.readFailed(err)
			return
		}
		observability.RecordFrame("in")
		s.handleFrame(payload)
	}
}

func (s *Session) readFailed(err error) {
	switch s.State() {
	case StateClosed:
		return
	case StateDraining:
		if errors.Is(err, io.EOF) {
			s.closeWithError(nil)
			return
		}
	}
	if frame.Desynchronized(err) {
		observability.RecordDroppedFrame("desync")
		s.log.Error().Err(err).Msg("stream desynchronized, closing session")
	} else if !errors.Is(err, io.EOF) {
		s.log.Warn().Err(err).Msg("channel read failed")
	}
	s.closeWithError(fmt.Errorf("session: read: %w", err))
}

func (s *Session) handleFrame(payload []byte) {
	msg, err := protocol.DecodeMessage(s.reg, payload)
	if err != nil {
		s.dropFrame(err)
		return
	}
	desc, err := s.reg.Lookup(msg.Type())
	if err != nil {
		s.dropFrame(err)
		return
	}
	if desc.Role == protocol.RoleReply {
		s.completeReply(msg.(protocol.Reply))
		return
	}
	s.dispatch(desc, msg)
}

func (s *Session) dropFrame(err error) {
	de, _ := protocol.AsDecodeError(err)
	if errors.Is(err, protocol.ErrUnknownMessageType) {
		observability.RecordDroppedFrame("unknown_type")
		event := s.log.Warn().Err(err)
		if de != nil {
			event = event.Int32("tag", int32(de.Type))
		}
		event.Msg("dropping frame with unknown message type")
		return
	}

	observability.RecordDroppedFrame("malformed")
	s.log.Warn().Err(err).Msg("dropping malformed frame")
	if de == nil || !de.HasRequestID {
		return
	}
	desc, lookupErr := s.reg.Lookup(de.Type)
	if lookupErr != nil {
		return
	}
	switch desc.Role {
	case protocol.RoleReply:
		if call, ok := s.pending.take(de.RequestID); ok {
			call.finish(nil, err)
		}
	case protocol.RoleRequest:
		// The peer is waiting on this id; tell it why no handler ran.
		req, ok := s.newRequestStub(desc, de.RequestID)
		if ok {
			s.answer(s.ctx, desc, req, nil, protocol.NewRemoteError(protocol.RemoteErrorMalformed, "%v", err))
		}
	}
}

func (s *Session) completeReply(reply protocol.Reply) {
	id := reply.RequestID()
	call, ok := s.pending.take(id)
	if !ok {
		observability.RecordDroppedFrame("late_reply")
		s.log.Debug().Str("type", reply.Type().String()).Int64("request_id", id).
			Msg("discarding reply without a live entry")
		return
	}
	if reply.Type() != call.ReplyType {
		call.finish(nil, &protocol.ReplyTypeMismatchError{
			RequestID:   id,
			RequestType: call.RequestType,
			Expected:    call.ReplyType,
			Actual:      reply.Type(),
		})
		return
	}
	call.finish(reply, nil)
}

func (s *Session) dispatch(desc protocol.Descriptor, msg protocol.Message) {
	h := s.handler(desc.Type)
	if h == nil && desc.Terminates {
		h = func(context.Context, protocol.Message) (protocol.Reply, error) { return nil, nil }
	}
	req, isRequest := msg.(protocol.Request)

	if h == nil {
		observability.RecordInbound(desc.Name, "unhandled")
		s.log.Debug().Str("type", desc.Name).Msg("no handler registered")
		if isRequest {
			s.answer(s.ctx, desc, req, nil, protocol.NewRemoteError(protocol.RemoteErrorUnsupported, "no handler for %s", desc.Name))
		}
		return
	}

	s.mu.Lock()
	if s.State() != StateRunning {
		s.mu.Unlock()
		observability.RecordInbound(desc.Name, "rejected")
		if isRequest {
			s.answer(s.ctx, desc, req, nil, protocol.NewRemoteError(protocol.RemoteErrorClosing, "session is draining"))
		}
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		observability.AddHandlersInflight(1)
		defer observability.AddHandlersInflight(-1)

		ctx, span := s.tracer.Start(s.ctx, "proxywire.inbound "+desc.Name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("proxywire.type", desc.Name)),
		)
		defer span.End()

		reply, err := invoke(ctx, h, msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler failed")
			observability.RecordInbound(desc.Name, observability.OutcomeError)
		} else {
			observability.RecordInbound(desc.Name, observability.OutcomeOK)
		}
		if isRequest {
			s.answer(ctx, desc, req, reply, err)
		}
		if desc.Terminates {
			s.log.Info().Msg("peer requested termination")
			s.beginDrain()
		}
	}()
}

// invoke runs h, converting a panic into an error so one bad handler cannot
// take the reader down.
func invoke(ctx context.Context, h Handler, msg protocol.Message) (reply protocol.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = nil, fmt.Errorf("session: handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

// answer replies to req with reply, or with an empty bound reply carrying
// herr when reply is nil.
func (s *Session) answer(ctx context.Context, desc protocol.Descriptor, req protocol.Request, reply protocol.Reply, herr error) {
	if reply == nil {
		m, err := s.reg.New(desc.ReplyType)
		if err != nil {
			s.log.Error().Err(err).Str("type", desc.Name).Msg("cannot build reply")
			return
		}
		reply = m.(protocol.Reply)
	}
	if herr != nil {
		var remote *protocol.RemoteError
		if !errors.As(herr, &remote) {
			remote = protocol.NewRemoteError(protocol.RemoteErrorGeneric, "%v", herr)
		}
		reply.SetRemoteError(remote)
	}
	if err := s.Reply(ctx, req, reply); err != nil {
		s.log.Warn().Err(err).Str("type", desc.Name).Int64("request_id", req.RequestID()).Msg("reply failed")
	}
}

func (s *Session) newRequestStub(desc protocol.Descriptor, id int64) (protocol.Request, bool) {
	req, ok := desc.New().(protocol.Request)
	if ok {
		req.SetRequestID(id)
	}
	return req, ok
}

// beginDrain moves a Running session to Draining and starts the drainer once.
func (s *Session) beginDrain() {
	s.mu.Lock()
	if s.State() != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state.Store(int32(StateDraining))
	s.mu.Unlock()
	s.log.Info().Int("pending", s.pending.len()).Msg("session draining")
	s.drainOnce.Do(func() { go s.drain() })
}

func (s *Session) drain() {
	var expired <-chan time.Time
	if s.cfg.DrainTimeout > 0 {
		timer := time.NewTimer(s.cfg.DrainTimeout)
		defer timer.Stop()
		expired = timer.C
	}
	handlersDone := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(handlersDone)
	}()
	for _, idle := range []<-chan struct{}{s.pending.whenIdle(), handlersDone} {
		select {
		case <-idle:
		case <-expired:
			s.log.Warn().Int("pending", s.pending.len()).Msg("drain timed out")
			s.closeWithError(ErrDrainTimeout)
			return
		case <-s.done:
			return
		}
	}
	s.closeWithError(nil)
}

// Drain stops accepting new calls, waits for pending calls and running
// handlers, then closes. ctx and Config.DrainTimeout both bound the wait;
// hitting either forces the close.
func (s *Session) Drain(ctx context.Context) error {
	switch s.State() {
	case StateOpen:
		return s.Close()
	case StateClosed:
		return nil
	}
	s.beginDrain()
	select {
	case <-s.done:
		if errors.Is(s.err, ErrDrainTimeout) {
			return s.err
		}
		return nil
	case <-ctx.Done():
		s.closeWithError(fmt.Errorf("%w: %w", ErrDrainTimeout, ctx.Err()))
		return ctx.Err()
	}
}

// Close closes the channel immediately. Pending calls fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.closeWithError(nil)
	return nil
}

func (s *Session) closeWithError(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state.Store(int32(StateClosed))
		s.err = cause
		s.mu.Unlock()

		s.cancel()
		if err := s.ch.Close(); err != nil {
			s.log.Debug().Err(err).Msg("channel close")
		}

		failure := protocol.ErrSessionClosed
		if cause != nil {
			failure = fmt.Errorf("%w: %w", protocol.ErrSessionClosed, cause)
		}
		orphans := s.pending.closeAll(failure)
		for _, call := range orphans {
			call.finish(nil, failure)
		}
		event := s.log.Info().Int("failed_pending", len(orphans))
		if cause != nil {
			event = s.log.Warn().Err(cause).Int("failed_pending", len(orphans))
		}
		event.Msg("session closed")
		close(s.done)
	})
}

func callOutcome(reply protocol.Reply, err error) string {
	switch {
	case err == nil && reply != nil && reply.RemoteError() != nil:
		return observability.OutcomeRemoteError
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, protocol.ErrTimeout):
		return observability.OutcomeTimeout
	case errors.Is(err, protocol.ErrCanceled):
		return observability.OutcomeCanceled
	case errors.Is(err, protocol.ErrReplyTypeMismatch):
		return observability.OutcomeMismatch
	case errors.Is(err, protocol.ErrMalformedMessage):
		return observability.OutcomeMalformed
	case errors.Is(err, protocol.ErrSessionClosed), errors.Is(err, protocol.ErrSessionClosing):
		return observability.OutcomeClosed
	default:
		return observability.OutcomeError
	}
}
