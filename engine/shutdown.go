package engine

// Shutdown terminates every live session, closing their peers, shells,
// and SSH transports. Used on SIGINT/SIGTERM so a restart never leaves
// orphaned SSH connections behind (spec.md §5: persisted state is none,
// so there is nothing to preserve across a restart anyway).
func (e *Engine) Shutdown() {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	for _, sess := range sessions {
		e.terminate(sess, StateClosed, ReasonDeleted, CloseAdministrative)
	}
}
