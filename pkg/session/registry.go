package session

import "sync"

// Registry holds the set of server-side States a process is tracking,
// keyed by sessionId. It is the SUPPLEMENTED feature spec.md leaves
// implicit: a server needs somewhere to keep many concurrent SessionStates,
// even though spec.md scopes a single State's lifecycle only.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*State)}
}

// Put indexes state under its current SessionID. Callers must set
// state.SessionID before calling Put (HandleRequestRegister does this).
func (r *Registry) Put(state *State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[string(state.SessionID)] = state
}

// Get looks up a session by sessionId. The second return is false if no
// such session is tracked.
func (r *Registry) Get(sessionID []byte) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[string(sessionID)]
	return s, ok
}

// Delete removes a session from the registry, e.g. after it moves to
// PhaseRejected or the transport tears it down.
func (r *Registry) Delete(sessionID []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, string(sessionID))
}

// Len reports how many sessions are currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
