// Package gateway implements a multi-transport tool-call gateway for the
// Model Context Protocol (MCP), exposing the seqconsole workbench's
// sequence-analysis tools to LLM clients. This implementation follows the
// official specification from https://spec.modelcontextprotocol.io/specification/.
//
// The gateway accepts JSON-RPC envelopes over three concurrent transports (a
// long-lived SSE stream, a bidirectional WebSocket, and discrete HTTP POST
// exchanges), runs them through one shared protocol core, executes
// server-side tools in-process, and forwards client-side tools to the
// attached workbench, correlating the asynchronous replies back to the
// original caller under a timeout.
package gateway
