package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultCallTimeout bounds how long a client-side tool call waits for the
// workbench before failing. It is policy, not protocol law; override it with
// WithCallTimeout.
const defaultCallTimeout = 30 * time.Second

// pendingCall tracks one in-flight client-side tool invocation awaiting its
// reply or timeout. The reply channel is buffered so the winning resolver
// never blocks.
type pendingCall struct {
	id        string
	tool      string
	args      map[string]any
	createdAt time.Time
	reply     chan ExecutionReply
}

// Dispatcher routes tool calls: server-side tools run in-process, client-side
// tools are forwarded to the executor and correlated back through the
// pending-call table.
//
// The reply/timeout race is single-winner by construction: both paths remove
// the entry from the table first, and only the path that actually removed it
// acts. The loser sees an absent entry and becomes a no-op.
type Dispatcher struct {
	catalog  *Catalog
	executor Executor
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingCall
	closed  bool
}

// NewDispatcher creates a dispatcher over the given catalog and executor. A
// nil executor means no workbench can ever be addressed; client-side calls
// then fail immediately.
func NewDispatcher(catalog *Catalog, executor Executor, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Dispatcher{
		catalog:  catalog,
		executor: executor,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "dispatcher")),
		pending:  make(map[string]*pendingCall),
	}
}

// CallTool validates and executes one tool call on behalf of clientID. It
// always returns a CallToolResult: tool-level failures (validation, timeout,
// missing workbench, executor-reported errors) come back with IsError set so
// callers can distinguish "the tool failed" from "the protocol is broken".
func (d *Dispatcher) CallTool(ctx context.Context, params CallToolParams, clientID string) CallToolResult {
	if err := d.catalog.Validate(params.Name, params.Arguments); err != nil {
		d.logger.Info("rejecting tool call",
			slog.String("tool", params.Name),
			slog.String("err", err.Error()))
		return toolErrorResult(err, params)
	}

	desc, _ := d.catalog.Get(params.Name)
	if !desc.ClientSide() {
		return d.callServerSide(ctx, desc, params)
	}
	return d.callClientSide(ctx, desc, params, clientID)
}

// Resolve delivers one executor reply to the pending call it correlates with.
// Replies for unknown correlation ids (late replies after a timeout,
// duplicates, replies for a dead call) are logged and discarded.
func (d *Dispatcher) Resolve(reply ExecutionReply) {
	pc, ok := d.take(reply.RequestID)
	if !ok {
		d.logger.Info("discarding reply with no pending call",
			slog.String("requestID", reply.RequestID))
		return
	}
	pc.reply <- reply
}

// PendingCount returns the number of in-flight client-side calls.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// RejectAll fails every pending call with the given reason and refuses new
// client-side calls. Called once on gateway shutdown.
func (d *Dispatcher) RejectAll(reason string) {
	d.mu.Lock()
	d.closed = true
	rejected := d.pending
	d.pending = make(map[string]*pendingCall)
	d.mu.Unlock()

	for _, pc := range rejected {
		pc.reply <- ExecutionReply{RequestID: pc.id, Success: false, Error: reason}
	}
}

func (d *Dispatcher) callServerSide(ctx context.Context, desc ToolDescriptor, params CallToolParams) CallToolResult {
	result, err := desc.Handler(ctx, params.Arguments)
	if err != nil {
		d.logger.Info("tool failed",
			slog.String("tool", desc.Name),
			slog.String("err", err.Error()))
		return toolErrorResult(err, params)
	}
	return textResult(result)
}

func (d *Dispatcher) callClientSide(
	ctx context.Context,
	desc ToolDescriptor,
	params CallToolParams,
	clientID string,
) CallToolResult {
	if d.executor == nil || !d.executor.Connected() {
		return toolErrorResult(NoClientError{Tool: desc.Name}, params)
	}

	pc := &pendingCall{
		id:        uuid.New().String(),
		tool:      desc.Name,
		args:      params.Arguments,
		createdAt: time.Now(),
		reply:     make(chan ExecutionReply, 1),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return toolErrorResult(errors.New("gateway is shutting down"), params)
	}
	d.pending[pc.id] = pc
	d.mu.Unlock()

	if err := d.executor.Send(ctx, ExecutionRequest{
		RequestID:  pc.id,
		ToolName:   desc.Name,
		Parameters: params.Arguments,
		ClientID:   clientID,
	}); err != nil {
		// The request never reached the workbench; nothing will reply.
		d.take(pc.id)
		d.logger.Error("failed to forward tool call",
			slog.String("tool", desc.Name),
			slog.String("err", err.Error()))
		return toolErrorResult(NoClientError{Tool: desc.Name}, params)
	}

	d.logger.Debug("forwarded tool call",
		slog.String("tool", desc.Name),
		slog.String("requestID", pc.id))

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case reply := <-pc.reply:
		return d.replyResult(desc.Name, params, reply)
	case <-timer.C:
		if _, ok := d.take(pc.id); ok {
			return toolErrorResult(TimeoutError{Tool: desc.Name, Elapsed: time.Since(pc.createdAt)}, params)
		}
		// A reply won the race just as the timer fired; it is already queued.
		return d.replyResult(desc.Name, params, <-pc.reply)
	case <-ctx.Done():
		if _, ok := d.take(pc.id); ok {
			return toolErrorResult(ctx.Err(), params)
		}
		return d.replyResult(desc.Name, params, <-pc.reply)
	}
}

func (d *Dispatcher) replyResult(tool string, params CallToolParams, reply ExecutionReply) CallToolResult {
	if !reply.Success {
		return toolErrorResult(ExecutorError{Tool: tool, Message: reply.Error}, params)
	}
	text := string(reply.Result)
	if text == "" {
		text = "null"
	}
	return CallToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// take removes the pending call for id and reports whether it was present.
// This is the one atomic check both the reply and timeout paths go through,
// so at most one of them can resolve the continuation.
func (d *Dispatcher) take(id string) (*pendingCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	return pc, ok
}

// textResult serializes a tool's return value into the standard text content
// envelope.
func textResult(v any) CallToolResult {
	bs, err := json.Marshal(v)
	if err != nil {
		return toolErrorResult(err, CallToolParams{})
	}
	return CallToolResult{
		Content: []Content{{Type: "text", Text: string(bs)}},
	}
}

// toolErrorResult renders a tool-level failure, echoing the offending tool
// name and parameters so clients can report what was actually attempted.
func toolErrorResult(err error, params CallToolParams) CallToolResult {
	payload := map[string]any{
		"error": err.Error(),
	}
	if params.Name != "" {
		payload["tool"] = params.Name
	}
	if params.Arguments != nil {
		payload["arguments"] = params.Arguments
	}

	var te TimeoutError
	if errors.As(err, &te) {
		payload["timedOut"] = true
		payload["elapsedMs"] = te.Elapsed.Milliseconds()
	}
	var nce NoClientError
	if errors.As(err, &nce) {
		payload["noClient"] = true
	}

	bs, _ := json.Marshal(payload)
	return CallToolResult{
		Content: []Content{{Type: "text", Text: string(bs)}},
		IsError: true,
	}
}
