package gateway

import (
	"encoding/json"
	"fmt"
)

// MustString enforces string representation for fields the protocol allows to
// be either string or integer, such as request IDs. It converts automatically
// during JSON marshaling/unmarshaling so correlation lookups always key on the
// string form.
type MustString string

// JSONRPCMessage represents a JSON-RPC 2.0 message. It can represent a
// request, response, or notification depending on which fields are populated:
//   - Request: JSONRPC, ID, Method, and Params are set
//   - Response: JSONRPC, ID, and either Result or Error are set
//   - Notification: JSONRPC and Method are set (no ID)
type JSONRPCMessage struct {
	// JSONRPC must always be "2.0" per the JSON-RPC specification
	JSONRPC string `json:"jsonrpc"`
	// ID uniquely identifies request-response pairs
	ID MustString `json:"id,omitempty"`
	// Method contains the RPC method name for requests and notifications
	Method string `json:"method,omitempty"`
	// Params contains the parameters for the method call as a raw JSON message
	Params json.RawMessage `json:"params,omitempty"`
	// Result contains the successful response data as a raw JSON message
	Result json.RawMessage `json:"result,omitempty"`
	// Error contains error details if the request failed
	Error *JSONRPCError `json:"error,omitempty"`
}

// IsNotification reports whether the message is a notification, i.e. a method
// call that carries no ID and therefore expects no response.
func (m JSONRPCMessage) IsNotification() bool {
	return m.Method != "" && m.ID == ""
}

// JSONRPCError represents an error response in the JSON-RPC 2.0 protocol.
type JSONRPCError struct {
	// Code indicates the error type that occurred.
	Code int `json:"code"`

	// Message provides a short description of the error.
	Message string `json:"message"`

	// Data contains additional information about the error. May be omitted.
	Data map[string]any `json:"data,omitempty"`
}

// Info contains metadata about a server or client instance.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool is the wire representation of a tool descriptor as returned by
// tools/list. InputSchema is a JSON Schema object generated from the
// descriptor's parameter specs.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// CallToolParams contains parameters for executing a specific tool.
type CallToolParams struct {
	// Name is the unique identifier of the tool to execute
	Name string `json:"name"`

	// Arguments is a map of argument name-value pairs. Must satisfy the
	// required parameters declared in the tool's descriptor.
	Arguments map[string]any `json:"arguments"`
}

// CallToolResult represents the outcome of a tool invocation. IsError
// indicates whether the operation failed, with details in Content. Tool-level
// failures (validation, timeout, executor error) are reported here rather
// than as JSON-RPC errors, so clients can render them without special-casing
// transport failure.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents a single content item in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerCapabilities represents the capabilities advertised in the
// initialize response.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability represents tools-specific capabilities.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ExecutionRequest is the message the gateway sends to the workbench executor
// for a client-side tool call. RequestID pairs the eventual reply with the
// waiting caller.
type ExecutionRequest struct {
	RequestID  string         `json:"requestId"`
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters"`
	ClientID   string         `json:"clientId,omitempty"`
}

// ExecutionReply is the message the executor sends back once a forwarded tool
// call finishes. Exactly one of Result or Error is meaningful depending on
// Success.
type ExecutionReply struct {
	RequestID string          `json:"requestId"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ClientInfo      Info            `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Info               `json:"serverInfo"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type pingResult struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	State         string `json:"state"`
	ServerReady   bool   `json:"serverReady"`
	ExecutorReady bool   `json:"executorReady"`
}

const (
	// JSONRPCVersion specifies the JSON-RPC protocol version used for communication.
	JSONRPCVersion = "2.0"

	// MethodToolsList is the method name for retrieving the tool catalog.
	MethodToolsList = "tools/list"
	// MethodToolsCall is the method name for invoking a specific tool.
	MethodToolsCall = "tools/call"

	methodPing       = "ping"
	methodInitialize = "initialize"

	methodNotificationsInitialized = "notifications/initialized"

	// DefaultProtocolVersion is advertised when the client does not request a
	// specific protocol version during initialize.
	DefaultProtocolVersion = "2024-11-05"

	jsonRPCParseErrorCode     = -32700
	jsonRPCInvalidRequestCode = -32600
	jsonRPCMethodNotFoundCode = -32601
	jsonRPCInternalErrorCode  = -32603
)

// UnmarshalJSON implements json.Unmarshaler to convert JSON data into
// MustString, handling both string and numeric input formats.
func (m *MustString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case string:
		*m = MustString(v)
	case float64:
		*m = MustString(fmt.Sprintf("%d", int(v)))
	case int:
		*m = MustString(fmt.Sprintf("%d", v))
	default:
		return fmt.Errorf("invalid type: %T", v)
	}

	return nil
}

// MarshalJSON implements json.Marshaler to convert MustString into its JSON
// representation, always encoding as a string value.
func (m MustString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(m))
}

func (j JSONRPCError) Error() string {
	return fmt.Sprintf("request error, code: %d, message: %s, data %v", j.Code, j.Message, j.Data)
}
