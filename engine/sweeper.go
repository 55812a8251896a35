package engine

import (
	"context"
	"time"
)

// RunSweeper implements the idle sweeper (spec.md §4.7): every interval,
// terminate sessions with no open peer whose activity is older than
// their idle budget. It returns when ctx is cancelled so the sweeper
// timer never blocks graceful process exit (spec.md §5).
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

func (e *Engine) sweep() {
	e.mu.Lock()
	candidates := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		candidates = append(candidates, s)
	}
	e.mu.Unlock()

	now := nowMs()
	for _, sess := range candidates {
		if sess.eligibleForSweep(now) {
			e.terminate(sess, StateClosed, ReasonIdleTimeout, CloseAdministrative)
		}
	}
}
