package engine

import (
	"sync"
)

// Session is the central entity described in spec.md §3: one SSH
// transport, one PTY shell, and N attached peers under a single id.
//
// Peers never hold a pointer back into the engine or the session; the
// WebSocket handler that owns a peer and the engine's output pump pass
// the *Session to Engine methods, so the only ownership edge is
// Engine -> Session (spec.md design notes, "cyclic ownership").
type Session struct {
	ID string

	mu             sync.Mutex
	state          State
	createdAt      int64
	lastActivityAt int64
	idleTimeoutMs  int64
	cols, rows     int
	meta           Meta
	ssh            Transport
	shell          Shell
	peers          map[string]Peer

	terminateOnce sync.Once
}

func newSession(id string, meta Meta, cols, rows int, idleTimeoutMs, now int64) *Session {
	return &Session{
		ID:             id,
		state:          StateConnecting,
		createdAt:      now,
		lastActivityAt: now,
		idleTimeoutMs:  idleTimeoutMs,
		cols:           cols,
		rows:           rows,
		meta:           meta,
		peers:          make(map[string]Peer),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// markReady installs the freshly-dialed transport/shell and transitions
// Connecting -> Ready, unless the session already reached a terminal
// state while the dial was in flight (idle sweep, delete, or a prior
// SSH/shell failure racing ahead of Create). Returns false in that
// case; the caller owns closing the handles it just dialed instead of
// installing them on a session that terminate() has already torn down
// and removed from the registry.
func (s *Session) markReady(ssh Transport, shell Shell) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.ssh = ssh
	s.shell = shell
	s.state = StateReady
	return true
}

func (s *Session) touch(now int64) {
	s.mu.Lock()
	s.lastActivityAt = now
	s.mu.Unlock()
}

// eligibleForSweep reports whether the session has no open peer and has
// been idle longer than its budget (spec.md §4.7).
func (s *Session) eligibleForSweep(now int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	for _, p := range s.peers {
		if p.Open() {
			return false
		}
	}
	return now-s.lastActivityAt > s.idleTimeoutMs
}

func (s *Session) view() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := 0
	for _, p := range s.peers {
		if p.Open() {
			open++
		}
	}
	return SessionView{
		ID:              s.ID,
		State:           s.state,
		CreatedAt:       s.createdAt,
		LastActivityAt:  s.lastActivityAt,
		IdleTimeoutMs:   s.idleTimeoutMs,
		Cols:            s.cols,
		Rows:            s.rows,
		AttachedClients: open,
		Meta:            s.meta,
	}
}

func (s *Session) dims() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

func (s *Session) setDims(cols, rows int) {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
}

func (s *Session) shellHandle() Shell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shell
}

func (s *Session) peerSnapshot() []Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

func (s *Session) addPeer(p Peer) {
	s.mu.Lock()
	s.peers[p.ID()] = p
	s.mu.Unlock()
}

func (s *Session) removePeer(id string) {
	s.mu.Lock()
	delete(s.peers, id)
	s.mu.Unlock()
}
