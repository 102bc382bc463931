package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option represents the options for the gateway.
type Option func(*Gateway)

// Gateway is the multi-transport MCP tool-call gateway. It owns the tool
// catalog, the execution dispatcher with its pending-call table, and the
// connection registry; the transport adapters delegate every parsed envelope
// to its HandleEnvelope so the three wire formats share one protocol core.
//
// Construct with New, wire the adapters, and tear down with Shutdown.
type Gateway struct {
	info            Info
	protocolVersion string
	callTimeout     time.Duration
	logger          *slog.Logger

	catalog    *Catalog
	dispatcher *Dispatcher
	executor   Executor
	registry   *ConnectionRegistry

	startedAt time.Time
}

// New creates a gateway serving the given catalog. The executor may be nil
// when no workbench will ever attach; client-side tool calls then fail
// immediately with a no-client error.
func New(info Info, catalog *Catalog, executor Executor, options ...Option) *Gateway {
	g := &Gateway{
		info:            info,
		protocolVersion: DefaultProtocolVersion,
		callTimeout:     defaultCallTimeout,
		logger:          slog.Default(),
		catalog:         catalog,
		executor:        executor,
		registry:        NewConnectionRegistry(),
		startedAt:       time.Now(),
	}
	for _, opt := range options {
		opt(g)
	}
	g.logger = g.logger.With(slog.String("component", "gateway"))
	g.dispatcher = NewDispatcher(catalog, executor, g.callTimeout, g.logger)
	return g
}

// WithLogger sets the logger for the gateway and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithCallTimeout sets the bound on client-side tool calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.callTimeout = timeout
	}
}

// WithProtocolVersion sets the protocol version advertised when the client
// does not request one.
func WithProtocolVersion(version string) Option {
	return func(g *Gateway) {
		g.protocolVersion = version
	}
}

// Catalog returns the gateway's tool catalog.
func (g *Gateway) Catalog() *Catalog { return g.catalog }

// Registry returns the gateway's connection registry.
func (g *Gateway) Registry() *ConnectionRegistry { return g.registry }

// NewSession creates a protocol session owned by the named transport adapter.
func (g *Gateway) NewSession(transport string) *ProtocolSession {
	return newProtocolSession(uuid.New().String(), transport, g.logger)
}

// ResolveReply feeds one executor reply into the pending-call table. The
// workbench bridge calls this for every inbound reply frame.
func (g *Gateway) ResolveReply(reply ExecutionReply) {
	g.dispatcher.Resolve(reply)
}

// Shutdown rejects all pending client-side calls and refuses new ones. Open
// transport connections are owned by their adapters and the HTTP server, not
// by the gateway.
func (g *Gateway) Shutdown(_ context.Context) error {
	g.dispatcher.RejectAll("gateway is shutting down")
	return nil
}

// HealthStatus is the payload of the liveness endpoint, outside the protocol
// itself.
type HealthStatus struct {
	Status            string         `json:"status"`
	Uptime            string         `json:"uptime"`
	Connections       map[string]int `json:"connections"`
	PendingCalls      int            `json:"pendingCalls"`
	ExecutorConnected bool           `json:"executorConnected"`
}

// Health reports process health for operational monitoring.
func (g *Gateway) Health() HealthStatus {
	return HealthStatus{
		Status:            "ok",
		Uptime:            time.Since(g.startedAt).Round(time.Second).String(),
		Connections:       g.registry.Snapshot(),
		PendingCalls:      g.dispatcher.PendingCount(),
		ExecutorConnected: g.executorConnected(),
	}
}

func (g *Gateway) executorConnected() bool {
	return g.executor != nil && g.executor.Connected()
}

// HandleEnvelope is the shared dispatch core used by all three transport
// adapters. It handles one parsed JSON-RPC envelope against the given session
// and returns the response to emit, or nil when the envelope was a
// notification and nothing must be sent back. Adapters are responsible only
// for framing: parsing bytes off their wire, calling HandleEnvelope, and
// writing the returned envelope back in their own format.
func (g *Gateway) HandleEnvelope(ctx context.Context, sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	started := time.Now()

	if msg.JSONRPC != JSONRPCVersion || msg.Method == "" {
		return errorResponse(msg.ID, jsonRPCInvalidRequestCode, "invalid request: missing jsonrpc version or method")
	}

	resp := g.dispatchMethod(ctx, sess, msg)

	g.logger.Info("handled envelope",
		slog.String("transport", sess.Transport()),
		slog.String("method", msg.Method),
		slog.Int64("durationMs", time.Since(started).Milliseconds()))

	return resp
}

func (g *Gateway) dispatchMethod(ctx context.Context, sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	switch msg.Method {
	case methodInitialize:
		return g.handleInitialize(sess, msg)
	case methodNotificationsInitialized:
		sess.MarkReady()
		return nil
	case MethodToolsList:
		return g.handleToolsList(sess, msg)
	case MethodToolsCall:
		return g.handleToolsCall(ctx, sess, msg)
	case methodPing:
		return g.handlePing(sess, msg)
	default:
		if msg.IsNotification() {
			// Nothing to pair an error with; log and move on.
			g.logger.Debug("ignoring unknown notification", slog.String("method", msg.Method))
			return nil
		}
		return errorResponse(msg.ID, jsonRPCMethodNotFoundCode, "method not found: "+msg.Method)
	}
}

func (g *Gateway) handleInitialize(sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorResponse(msg.ID, jsonRPCInvalidRequestCode, "invalid initialize params: "+err.Error())
		}
	}

	version := sess.Initialize(params.ClientInfo, params.ProtocolVersion, g.protocolVersion)

	return resultResponse(msg.ID, initializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: g.info,
	})
}

func (g *Gateway) handleToolsList(sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	if !sess.Ready() {
		// Clients routinely race tools/list ahead of the initialized ack;
		// serve the immutable catalog anyway and leave a diagnostic.
		g.logger.Warn("serving tools/list before handshake completed",
			slog.String("sessionID", sess.ID()),
			slog.String("state", sess.State().String()))
	}
	return resultResponse(msg.ID, listToolsResult{Tools: g.catalog.Tools()})
}

func (g *Gateway) handleToolsCall(ctx context.Context, sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	var params CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errorResponse(msg.ID, jsonRPCInvalidRequestCode, "invalid tools/call params: "+err.Error())
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result := g.dispatcher.CallTool(ctx, params, sess.ID())
	return resultResponse(msg.ID, result)
}

func (g *Gateway) handlePing(sess *ProtocolSession, msg JSONRPCMessage) *JSONRPCMessage {
	return resultResponse(msg.ID, pingResult{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		State:         sess.State().String(),
		ServerReady:   sess.Ready(),
		ExecutorReady: g.executorConnected(),
	})
}

func resultResponse(id MustString, result any) *JSONRPCMessage {
	bs, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, jsonRPCInternalErrorCode, "failed to marshal result: "+err.Error())
	}
	return &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  bs,
	}
}

func errorResponse(id MustString, code int, message string) *JSONRPCMessage {
	return &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}

// ParseErrorResponse builds the envelope adapters emit when a request body is
// not valid JSON at all.
func ParseErrorResponse(err error) *JSONRPCMessage {
	return errorResponse("", jsonRPCParseErrorCode, "parse error: "+err.Error())
}
