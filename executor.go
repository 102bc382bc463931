package gateway

import "context"

// Executor is the gateway's only view of the workbench process that performs
// client-side tool work. The gateway pushes an ExecutionRequest through Send
// and expects the matching ExecutionReply to arrive on its own inbound path
// (the workbench bridge feeds Gateway.ResolveReply).
//
// Modeling the executor as an injected dependency keeps "no workbench
// connected" a constructible state: the dispatcher checks Connected before
// forwarding and fails immediately instead of burning the call timeout.
type Executor interface {
	// Send pushes one execution request to the workbench.
	Send(ctx context.Context, req ExecutionRequest) error

	// Connected reports whether a workbench is currently reachable.
	Connected() bool
}
