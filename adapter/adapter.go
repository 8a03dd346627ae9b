package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"

	"goa.design/agui/events"
	"goa.design/agui/runstream"
)

// ErrorCodeRuntimeStream identifies the runtime stream boundary in RunError
// events. It is the only error code the adapter produces on its own.
const ErrorCodeRuntimeStream = "RUNTIME_STREAM_ERROR"

// errConsumerGone aborts a run whose consumer stopped reading (context
// canceled while emitting). It never surfaces to callers.
var errConsumerGone = errors.New("event consumer gone")

type (
	// Adapter translates runtime-agent notification streams into AG-UI
	// protocol event sequences. One Adapter is reusable across runs and
	// threads; predictive-state tracking persists across runs until Reset.
	Adapter struct {
		name      string
		factory   AgentFactory
		cfg       Config
		threads   *ThreadStore
		tracer    trace.Tracer
		predictor *statePredictor
	}

	// Option customizes an Adapter.
	Option func(*Adapter)

	// runState carries the per-run moving parts of the controller.
	runState struct {
		a       *Adapter
		input   RunInput
		emit    func(events.Event) bool
		tracker *toolCallTracker
		asm     *messageAssembler
		// messageID is the run's primary message identifier, shared by all
		// text fragments and used as parent for tool call events.
		messageID string
		// pendingResult is set when the run input ends with a tool result:
		// the runtime is replaying a call the frontend already satisfied
		// and its lifecycle events must not be emitted again.
		pendingResult bool
		// halted stops yielding while the runtime stream keeps draining.
		halted bool
		// resultSeen guards against duplicate result records per call id.
		resultSeen map[string]struct{}
	}
)

// WithConfig sets the adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) { a.cfg = cfg }
}

// New constructs an Adapter. The factory creates one runtime-agent instance
// per conversation thread on first use.
func New(name string, factory AgentFactory, opts ...Option) (*Adapter, error) {
	if name == "" {
		return nil, errors.New("adapter name is required")
	}
	if factory == nil {
		return nil, errors.New("agent factory is required")
	}
	a := &Adapter{
		name:    name,
		factory: factory,
		threads: NewThreadStore(),
		tracer:  otel.Tracer("goa.design/agui/adapter"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.predictor = newStatePredictor(a.cfg.predictStateByTool())
	return a, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// Threads returns the per-thread runtime-agent store.
func (a *Adapter) Threads() *ThreadStore { return a.threads }

// Reset clears the adapter's predictive-state tracking: the prediction
// seen-set, the result suppression set, and any pending deferred events.
func (a *Adapter) Reset() { a.predictor.Reset() }

// HasDeferredConfirmEvents reports whether confirmation events await the
// pre-termination flush.
func (a *Adapter) HasDeferredConfirmEvents() bool { return a.predictor.HasDeferred() }

// Run executes one translation run and returns the channel on which its
// protocol events are delivered in order. The channel always carries
// RunStarted first and exactly one terminal event (RunFinished or RunError)
// last, then closes. Canceling ctx abandons the run: remaining events are
// dropped because the consumer is gone.
//
// The run is driven by a single goroutine; within a run there is no parallel
// translator work. Runs sharing a thread reuse that thread's runtime agent
// and must be invoked sequentially.
func (a *Adapter) Run(ctx context.Context, input RunInput) <-chan events.Event {
	out := make(chan events.Event)
	go func() {
		defer close(out)
		a.run(ctx, input, out)
	}()
	return out
}

func (a *Adapter) run(ctx context.Context, input RunInput, out chan<- events.Event) {
	ctx, span := a.tracer.Start(ctx, "agui.run", trace.WithAttributes(
		attribute.String("agui.thread_id", input.threadID()),
		attribute.String("agui.run_id", input.RunID),
	))
	defer span.End()
	ctx = log.With(ctx, log.KV{K: "thread_id", V: input.threadID()}, log.KV{K: "run_id", V: input.RunID})

	// Deferred confirmation events never cross run boundaries: the success
	// path flushes them before RunFinished, so anything still pending when
	// this run exits belongs to an aborted run and is dropped.
	defer a.predictor.FlushDeferred()

	emit := func(ev events.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit(events.NewRunStarted(input.ThreadID, input.RunID)) {
		return
	}

	fail := func(err error) {
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, err, log.KV{K: "msg", V: "run failed"})
		emit(events.NewRunError(err.Error(), ErrorCodeRuntimeStream))
	}

	agent, err := a.threads.Get(ctx, input.threadID(), a.factory)
	if err != nil {
		fail(err)
		return
	}

	if input.State != nil {
		if !emit(a.filteredSnapshot(input.State)) {
			return
		}
	}

	userMessage := input.latestUserMessage()
	if build := a.cfg.StateContextBuilder; build != nil {
		rewritten, err := build(ctx, input, userMessage)
		if err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "state context builder failed"}, log.KV{K: "err", V: err.Error()})
		} else if rewritten != "" {
			userMessage = rewritten
		}
	}

	stream, err := agent.Stream(ctx, userMessage)
	if err != nil {
		fail(err)
		return
	}

	rs := &runState{
		a:             a,
		input:         input,
		emit:          emit,
		tracker:       newToolCallTracker(input.frontendToolNames()),
		messageID:     uuid.NewString(),
		pendingResult: input.hasPendingToolResult(),
		resultSeen:    make(map[string]struct{}),
	}
	rs.asm = newMessageAssembler(rs.messageID)

	consumeErr := rs.consume(ctx, stream)
	if cerr := stream.Close(); cerr != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "runtime stream close failed"}, log.KV{K: "err", V: cerr.Error()})
	}
	if consumeErr != nil {
		// A canceled consumer context is abandonment, not a runtime failure.
		if errors.Is(consumeErr, errConsumerGone) || ctx.Err() != nil {
			return
		}
		fail(consumeErr)
		return
	}

	// Close any open message, then flush deferred confirmation events so
	// they land immediately before the terminal event.
	for _, ev := range rs.asm.Close() {
		if !emit(ev) {
			return
		}
	}
	for _, ev := range a.predictor.FlushDeferred() {
		if !emit(ev) {
			return
		}
	}
	emit(events.NewRunFinished(input.ThreadID, input.RunID))
}

// filteredSnapshot builds the initial state snapshot with the configured
// exclusions applied.
func (a *Adapter) filteredSnapshot(state map[string]any) events.StateSnapshot {
	exclude := a.cfg.snapshotExclusions()
	snapshot := make(map[string]any, len(state))
	for k, v := range state {
		if _, skip := exclude[k]; skip {
			continue
		}
		snapshot[k] = v
	}
	return events.StateSnapshot{Snapshot: snapshot}
}

// consume drives the runtime stream to completion. After a halt it keeps
// draining without yielding so the runtime's resources wind down cleanly;
// draining errors are logged, not surfaced. A nil return means the stream
// ended; the caller decides the terminal event.
func (rs *runState) consume(ctx context.Context, stream runstream.Stream) error {
	for {
		n, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if rs.halted {
				log.Warn(ctx, log.KV{K: "msg", V: "drain after halt failed"}, log.KV{K: "err", V: err.Error()})
				return nil
			}
			return err
		}
		if rs.halted {
			continue
		}
		switch n := n.(type) {
		case runstream.TextDelta:
			for _, ev := range rs.asm.OnText(n.Text) {
				if !rs.emit(ev) {
					return errConsumerGone
				}
			}
		case runstream.ToolCallFragment:
			rs.tracker.Observe(n)
		case runstream.ToolInputComplete:
			// At most one call resolves per completeness signal; a
			// duplicate signal finds nothing unemitted and is a no-op.
			call := rs.tracker.Resolve()
			if call == nil {
				continue
			}
			if err := rs.handleResolved(ctx, call); err != nil {
				return err
			}
		case runstream.ToolResult:
			if err := rs.handleResult(ctx, n); err != nil {
				return err
			}
		case runstream.Completed:
			return nil
		case runstream.ForceStopped:
			log.Debug(ctx, log.KV{K: "msg", V: "runtime force stopped"}, log.KV{K: "reason", V: n.Reason})
			return nil
		}
	}
}

// handleResolved emits the lifecycle of a tool call whose input just
// completed: state-from-args snapshot, predicted state, then the
// start/args/end triple. Frontend tool calls halt the run unless configured
// to continue.
func (rs *runState) handleResolved(ctx context.Context, call *toolCall) error {
	behavior, hasBehavior := rs.a.cfg.ToolBehaviors[call.name]
	callCtx := ToolCallContext{
		Input:      rs.input,
		ToolName:   call.name,
		ToolCallID: call.id,
		Arguments:  call.args,
		Parsed:     call.parsed,
	}

	if hasBehavior && behavior.StateFromArgs != nil {
		snapshot, err := behavior.StateFromArgs(ctx, callCtx)
		if err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "state from args hook failed"}, log.KV{K: "tool", V: call.name}, log.KV{K: "err", V: err.Error()})
		} else if snapshot != nil {
			if !rs.emit(events.StateSnapshot{Snapshot: snapshot}) {
				return errConsumerGone
			}
		}
	}

	if custom := rs.a.predictor.OnToolResolved(call, rs.messageID); custom != nil {
		if !rs.emit(*custom) {
			return errConsumerGone
		}
	}

	// A pending tool result means the runtime is replaying a call the
	// frontend already satisfied: its lifecycle events were emitted last
	// turn and this turn continues with the result, so neither the triple
	// nor the frontend halt applies.
	if rs.pendingResult {
		log.Debug(ctx, log.KV{K: "msg", V: "skipping tool call replay"}, log.KV{K: "tool", V: call.name}, log.KV{K: "tool_call_id", V: call.id})
		return nil
	}

	if !rs.emit(events.NewToolCallStart(call.id, call.name, rs.messageID)) {
		return errConsumerGone
	}
	if err := rs.emitArgs(ctx, behavior, hasBehavior, callCtx); err != nil {
		return err
	}
	if !rs.emit(events.NewToolCallEnd(call.id)) {
		return errConsumerGone
	}

	if call.frontend && !(hasBehavior && behavior.ContinueAfterFrontendCall) {
		log.Debug(ctx, log.KV{K: "msg", V: "halting after frontend tool call"}, log.KV{K: "tool", V: call.name}, log.KV{K: "tool_call_id", V: call.id})
		rs.halted = true
	}
	return nil
}

// emitArgs produces the tool call's argument events, through the behavior's
// streamer override when configured. Streamer failures fall back to the full
// argument text.
func (rs *runState) emitArgs(ctx context.Context, behavior ToolBehavior, hasBehavior bool, callCtx ToolCallContext) error {
	if hasBehavior && behavior.ArgsStreamer != nil {
		chunks, err := behavior.ArgsStreamer(ctx, callCtx)
		if err == nil {
			for _, chunk := range chunks {
				if chunk == "" {
					continue
				}
				if !rs.emit(events.NewToolCallArgs(callCtx.ToolCallID, chunk)) {
					return errConsumerGone
				}
			}
			return nil
		}
		log.Warn(ctx, log.KV{K: "msg", V: "args streamer failed, falling back to full args"}, log.KV{K: "tool", V: callCtx.ToolName}, log.KV{K: "err", V: err.Error()})
	}
	if !rs.emit(events.NewToolCallArgs(callCtx.ToolCallID, callCtx.Arguments)) {
		return errConsumerGone
	}
	return nil
}

// handleResult processes a backend tool's result record: result event
// (unless suppressed by predictive state), state-from-result snapshot,
// custom handler events, and the optional streaming stop.
func (rs *runState) handleResult(ctx context.Context, n runstream.ToolResult) error {
	call := rs.tracker.Lookup(n.InternalID)
	if call == nil {
		// Expected race between partial and final runtime notifications.
		log.Debug(ctx, log.KV{K: "msg", V: "dropping orphaned tool result"}, log.KV{K: "internal_id", V: n.InternalID})
		return nil
	}
	if _, dup := rs.resultSeen[call.id]; dup {
		log.Debug(ctx, log.KV{K: "msg", V: "dropping duplicate tool result"}, log.KV{K: "tool_call_id", V: call.id})
		return nil
	}
	rs.resultSeen[call.id] = struct{}{}

	content := normalizeResultContent(n.Content)
	if rs.a.predictor.SuppressResult(call.id) {
		log.Debug(ctx, log.KV{K: "msg", V: "suppressing tool result handled via predicted state"}, log.KV{K: "tool_call_id", V: call.id})
	} else if !rs.emit(events.NewToolCallResult(call.id, rs.messageID, content)) {
		return errConsumerGone
	}

	behavior, hasBehavior := rs.a.cfg.ToolBehaviors[call.name]
	if !hasBehavior {
		return nil
	}
	resultCtx := ToolResultContext{
		ToolCallContext: ToolCallContext{
			Input:      rs.input,
			ToolName:   call.name,
			ToolCallID: call.id,
			Arguments:  call.args,
			Parsed:     call.parsed,
		},
		Result:    content,
		MessageID: rs.messageID,
	}

	if behavior.StateFromResult != nil {
		snapshot, err := behavior.StateFromResult(ctx, resultCtx)
		if err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "state from result hook failed"}, log.KV{K: "tool", V: call.name}, log.KV{K: "err", V: err.Error()})
		} else if snapshot != nil {
			if !rs.emit(events.StateSnapshot{Snapshot: snapshot}) {
				return errConsumerGone
			}
		}
	}

	if behavior.CustomResultHandler != nil {
		evs, err := behavior.CustomResultHandler(ctx, resultCtx)
		if err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "custom result handler failed"}, log.KV{K: "tool", V: call.name}, log.KV{K: "err", V: err.Error()})
		} else {
			for _, ev := range evs {
				if ev == nil {
					continue
				}
				if !rs.emit(ev) {
					return errConsumerGone
				}
			}
		}
	}

	if behavior.StopStreamingAfterResult {
		rs.asm.Suppress()
		for _, ev := range rs.asm.Close() {
			if !rs.emit(ev) {
				return errConsumerGone
			}
		}
		rs.halted = true
	}
	return nil
}

// normalizeResultContent returns the result as a JSON document: valid JSON
// passes through untouched, anything else is encoded as a JSON string.
func normalizeResultContent(content string) string {
	if json.Valid([]byte(content)) {
		return content
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return content
	}
	return string(encoded)
}
