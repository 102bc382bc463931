package gateway

import (
	"log/slog"
	"sync"
)

// sessionState tracks the handshake lifecycle of one protocol session.
type sessionState int

const (
	stateUninitialized sessionState = iota
	stateAwaitingInitializedAck
	stateReady
)

func (s sessionState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateAwaitingInitializedAck:
		return "awaiting-initialized-ack"
	case stateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ProtocolSession holds the handshake state for one transport session. The
// SSE and socket adapters create one per connection; the HTTP adapter holds a
// single process-global session, since the transport has no connection
// lifetime to key off of.
//
// Handshake state gates diagnostics, not correctness: tools/list and
// tools/call are served in any state because real clients race requests ahead
// of the initialized notification.
type ProtocolSession struct {
	id        string
	transport string
	logger    *slog.Logger

	mu              sync.Mutex
	state           sessionState
	clientInfo      Info
	protocolVersion string
}

func newProtocolSession(id, transport string, logger *slog.Logger) *ProtocolSession {
	return &ProtocolSession{
		id:        id,
		transport: transport,
		logger: logger.With(
			slog.String("sessionID", id),
			slog.String("transport", transport),
		),
	}
}

// ID returns the unique identifier for this session.
func (s *ProtocolSession) ID() string { return s.id }

// Transport names the adapter that owns the session.
func (s *ProtocolSession) Transport() string { return s.transport }

// Initialize records the client's metadata and requested protocol version and
// moves the session to awaiting-initialized-ack. It returns the protocol
// version to echo back: the client's requested version, or the server default
// when the request omits one. Initialize may be called in any state; a repeat
// call simply re-captures the client info.
func (s *ProtocolSession) Initialize(clientInfo Info, requestedVersion, defaultVersion string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clientInfo = clientInfo
	s.protocolVersion = requestedVersion
	if s.protocolVersion == "" {
		s.protocolVersion = defaultVersion
	}
	s.state = stateAwaitingInitializedAck

	s.logger.Info("session initialized",
		slog.String("clientName", clientInfo.Name),
		slog.String("protocolVersion", s.protocolVersion))

	return s.protocolVersion
}

// MarkReady moves the session to ready on receipt of the initialized
// notification. Repeat notifications are idempotent.
func (s *ProtocolSession) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateReady {
		return
	}
	s.state = stateReady
	s.logger.Debug("session ready")
}

// State returns the current handshake state.
func (s *ProtocolSession) State() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the handshake has fully completed.
func (s *ProtocolSession) Ready() bool {
	return s.State() == stateReady
}

// ClientInfo returns the metadata captured at initialize.
func (s *ProtocolSession) ClientInfo() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}
