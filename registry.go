package gateway

import "sync"

// ConnectionRegistry tracks active transport sessions per adapter for
// diagnostics and for detecting "no active client" conditions. Transport
// adapters add a handle on connect and remove it on close or error; no
// ordering is guaranteed. Safe for concurrent use.
type ConnectionRegistry struct {
	mu    sync.Mutex
	conns map[string]string // session id -> transport name
}

// NewConnectionRegistry returns an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]string)}
}

// Add records an open transport session.
func (r *ConnectionRegistry) Add(id, transport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = transport
}

// Remove forgets a session. Removing an unknown id is a no-op.
func (r *ConnectionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Count returns the total number of open sessions.
func (r *ConnectionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Anyone reports whether any session is open on any adapter.
func (r *ConnectionRegistry) Anyone() bool {
	return r.Count() > 0
}

// Snapshot returns the number of open sessions per transport.
func (r *ConnectionRegistry) Snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, transport := range r.conns {
		counts[transport]++
	}
	return counts
}
