// Package engine is the session lifecycle and fan-out core described in
// spec.md §1: the registry, the per-session state machine, the
// bidirectional fan-out between one SSH shell and N attached peers, the
// idle sweeper, and the versioned notification bus. HTTP/WS routing,
// body parsing, and CORS are deliberately kept out of this package —
// they are the thin adapters spec.md §1 calls external collaborators.
package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures an Engine. Defaults mirror spec.md §5/§6.
type Options struct {
	MaxConnections    int
	DefaultIdleMs     int64
	Dialer            Dialer
	Log               zerolog.Logger
	DefaultCols       int
	DefaultRows       int
}

// Engine is the single process-wide value the design notes describe:
// "encapsulate [registry, notification counter, subscriber set] in a
// single engine value constructed at startup and passed to HTTP/WS
// adapters."
type Engine struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	version  uint64
	subs     map[uint64]chan Summary
	nextSub  uint64
}

func New(opts Options) *Engine {
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 100
	}
	if opts.DefaultIdleMs <= 0 {
		opts.DefaultIdleMs = 600000
	}
	if opts.DefaultCols <= 0 {
		opts.DefaultCols = 120
	}
	if opts.DefaultRows <= 0 {
		opts.DefaultRows = 30
	}
	return &Engine{
		opts:     opts,
		log:      opts.Log,
		sessions: make(map[string]*Session),
		subs:     make(map[uint64]chan Summary),
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// NowMs exposes the engine's clock so adapters (e.g. the /healthz
// handler) can stamp responses without reaching for time.Now directly.
func (e *Engine) NowMs() int64 { return nowMs() }

// CreateRequest is the body of POST /connections (spec.md §6).
type CreateRequest struct {
	Host          string
	Port          int
	Username      string
	Password      string
	Cols          int
	Rows          int
	IdleTimeoutMs int64
}

// Create admits a new session, connects the SSH transport, opens the
// PTY shell, and returns once the session is Ready or has failed
// (spec.md data-flow in §2). The HTTP layer blocks on this call; the
// 20s SSH ready-timeout bounds it.
func (e *Engine) Create(req CreateRequest) (SessionView, error) {
	if req.Host == "" || req.Username == "" || req.Password == "" {
		return SessionView{}, newError(KindInvalidRequest, "missing required field", "host, username, and password are required")
	}

	cols := req.Cols
	if cols <= 0 {
		cols = e.opts.DefaultCols
	}
	rows := req.Rows
	if rows <= 0 {
		rows = e.opts.DefaultRows
	}
	port := req.Port
	if port <= 0 {
		port = 22
	}
	idleTimeoutMs := req.IdleTimeoutMs
	if idleTimeoutMs <= 0 || !isFinite(float64(idleTimeoutMs)) {
		idleTimeoutMs = e.opts.DefaultIdleMs
	}

	id := uuid.NewString()
	meta := Meta{Host: req.Host, Port: port, Username: req.Username}

	e.mu.Lock()
	if len(e.sessions) >= e.opts.MaxConnections {
		e.mu.Unlock()
		return SessionView{}, newError(KindCapacityExceeded, "create failed",
			fmt.Sprintf("MAX_CONNECTIONS (%d) reached", e.opts.MaxConnections))
	}
	sess := newSession(id, meta, cols, rows, idleTimeoutMs, nowMs())
	e.sessions[id] = sess
	e.notifyLocked(ReasonCreated, []string{id})
	e.mu.Unlock()

	e.log.Info().Str("id", id).Str("host", req.Host).Msg("session connecting")

	transport, err := e.opts.Dialer.Connect(req.Host, port, req.Username, req.Password)
	if err != nil {
		e.terminate(sess, StateError, ReasonState, CloseUpstreamFailed)
		return SessionView{}, newError(KindConnectError, "ssh connect failed", err.Error())
	}

	shell, err := e.opts.Dialer.OpenShell(transport, cols, rows)
	if err != nil {
		transport.Close()
		e.terminate(sess, StateError, ReasonState, CloseUpstreamFailed)
		return SessionView{}, newError(KindShellError, "shell open failed", err.Error())
	}

	if !sess.markReady(transport, shell) {
		// The sweeper, a delete, or a prior failure already terminated
		// this session (e.g. spec.md §8 scenario 5's short idle budget
		// expiring while the dial was still in flight) and removed it
		// from the registry; terminateOnce has already fired, so do not
		// call terminate again — just release what Create just dialed.
		shell.Close()
		transport.Close()
		e.log.Warn().Str("id", id).Msg("session terminated before becoming ready")
		return SessionView{}, newError(KindConnectError, "session terminated before becoming ready", "")
	}

	e.opts.Dialer.StartKeepalive(transport, func(err error) {
		e.log.Warn().Str("id", id).Err(err).Msg("ssh keepalive failed")
		e.terminate(sess, StateError, ReasonState, CloseUpstreamFailed)
	})

	e.mu.Lock()
	e.notifyLocked(ReasonState, []string{id})
	e.mu.Unlock()

	go e.pumpOutput(sess)

	e.log.Info().Str("id", id).Msg("session ready")
	return sess.view(), nil
}

// Lookup returns the session for id, or false if it does not exist.
func (e *Engine) Lookup(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// Snapshot returns the full registry view (spec.md §4.1).
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	version := e.version
	e.mu.Unlock()

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.view())
	}
	return Snapshot{Version: version, Ts: nowMs(), Sessions: views}
}

// Delete terminates a session on administrative request (DELETE
// /connections/{id}). Idempotent: unknown ids return NotFound without
// side effects.
func (e *Engine) Delete(id string) error {
	sess, ok := e.Lookup(id)
	if !ok {
		return newError(KindNotFound, "not found", id)
	}
	e.terminate(sess, StateClosed, ReasonDeleted, CloseAdministrative)
	return nil
}

// Resize applies a window-change (spec.md §4.5). Valid only while Ready.
func (e *Engine) Resize(id string, cols, rows int) (int, int, error) {
	if !isFinite(float64(cols)) || !isFinite(float64(rows)) || cols <= 0 || rows <= 0 {
		return 0, 0, newError(KindInvalidRequest, "resize requires finite cols/rows", "")
	}
	sess, ok := e.Lookup(id)
	if !ok || sess.State() != StateReady {
		return 0, 0, newError(KindNotFound, "not found or not ready", id)
	}

	sess.setDims(cols, rows)
	sess.touch(nowMs())
	if shell := sess.shellHandle(); shell != nil {
		_ = shell.Resize(cols, rows) // tolerate absence of the underlying op
	}

	e.mu.Lock()
	e.notifyLocked(ReasonResize, []string{id})
	e.mu.Unlock()

	return cols, rows, nil
}

// Attach registers a peer against a Ready session (spec.md §4.4 step 2).
func (e *Engine) Attach(sess *Session, p Peer) error {
	if sess.State() != StateReady {
		return newError(KindNotReady, "session not ready", sess.ID)
	}
	sess.addPeer(p)
	sess.touch(nowMs())

	e.mu.Lock()
	e.notifyLocked(ReasonWSAttached, []string{sess.ID})
	e.mu.Unlock()
	return nil
}

// Detach removes a peer (spec.md §4.4 step 6).
func (e *Engine) Detach(sess *Session, p Peer) {
	sess.removePeer(p.ID())
	sess.touch(nowMs())

	e.mu.Lock()
	e.notifyLocked(ReasonWSDetached, []string{sess.ID})
	e.mu.Unlock()
}

// Touch records that a frame arrived for sess without otherwise
// mutating session state — ping, detach, and read-only-suppressed
// resize/stdin still advance lastActivityAt per spec.md §4.4 step 5
// ("Every inbound frame updates lastActivityAt").
func (e *Engine) Touch(sess *Session) {
	sess.touch(nowMs())
}

// WriteStdin forwards bytes to the session's shell (stdin control
// frames and raw passthrough, spec.md §4.4).
func (e *Engine) WriteStdin(sess *Session, data []byte) {
	sess.touch(nowMs())
	if shell := sess.shellHandle(); shell != nil {
		_, _ = shell.Write(data) // per-peer write errors are not this session's problem
	}
}

// pumpOutput is the fan-out engine (spec.md §4.6): one goroutine per
// session copying shell output to every open peer, in shell-emission
// order, until the shell closes or errors.
func (e *Engine) pumpOutput(sess *Session) {
	shell := sess.shellHandle()
	if shell == nil {
		return
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := shell.Read(buf)
		if n > 0 {
			sess.touch(nowMs())
			chunk := append([]byte(nil), buf[:n]...)
			for _, p := range sess.peerSnapshot() {
				if !p.Open() {
					continue
				}
				_ = p.SendBinary(chunk) // swallowed: the peer's own handler detaches it
			}
		}
		if err != nil {
			newState := StateClosed
			code := CloseAdministrative
			if !errors.Is(err, io.EOF) {
				newState = StateError
				code = CloseUpstreamFailed
			}
			e.terminate(sess, newState, ReasonState, code)
			return
		}
	}
}

// terminate is the single teardown path for every terminal transition
// (delete, idle sweep, SSH/shell close or error). It is idempotent —
// delete and the sweeper may race to terminate the same session, and
// only the first caller does the work (spec.md §4.2, §4.7).
func (e *Engine) terminate(sess *Session, newState State, reason string, closeCode int) {
	sess.terminateOnce.Do(func() {
		sess.mu.Lock()
		sess.state = newState
		peers := make([]Peer, 0, len(sess.peers))
		for _, p := range sess.peers {
			peers = append(peers, p)
		}
		sess.peers = make(map[string]Peer)
		shell := sess.shell
		sess.shell = nil
		transport := sess.ssh
		sess.ssh = nil
		sess.mu.Unlock()

		for _, p := range peers {
			p.Close(closeCode, closeReasonText(newState))
		}
		if shell != nil {
			shell.Close()
		}
		if transport != nil {
			transport.Close()
		}

		e.mu.Lock()
		delete(e.sessions, sess.ID)
		e.notifyLocked(reason, []string{sess.ID})
		e.mu.Unlock()

		e.log.Info().Str("id", sess.ID).Str("state", string(newState)).Str("reason", reason).Msg("session terminated")
	})
}

func closeReasonText(s State) string {
	if s == StateError {
		return "upstream failure"
	}
	return "session closed"
}

// Subscribe registers a notification-bus subscriber and seeds it with
// an immediate state summary (spec.md §4.8).
func (e *Engine) Subscribe() (uint64, <-chan Summary) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Summary, 16)
	e.subs[id] = ch
	initial := Summary{Version: e.version, Ts: nowMs(), Reason: ReasonState, Counts: e.countsLocked()}
	e.mu.Unlock()

	select {
	case ch <- initial:
	default:
	}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (e *Engine) Unsubscribe(id uint64) {
	e.mu.Lock()
	ch, ok := e.subs[id]
	delete(e.subs, id)
	e.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (e *Engine) countsLocked() Counts {
	var c Counts
	c.Total = len(e.sessions)
	for _, s := range e.sessions {
		switch s.State() {
		case StateReady:
			c.Ready++
		case StateConnecting:
			c.Connecting++
		case StateError:
			c.Error++
		case StateClosed:
			c.Closed++
		}
	}
	return c
}

// notifyLocked bumps the version and delivers a Summary to every
// subscriber. Must be called with e.mu held; delivery happens inline
// under the lock with non-blocking sends, so a slow subscriber cannot
// stall the engine.
func (e *Engine) notifyLocked(reason string, changedIDs []string) Summary {
	e.version++
	summary := Summary{
		Version:    e.version,
		Ts:         nowMs(),
		Reason:     reason,
		ChangedIDs: changedIDs,
		Counts:     e.countsLocked(),
	}
	chans := make([]chan Summary, 0, len(e.subs))
	for _, ch := range e.subs {
		chans = append(chans, ch)
	}

	// Non-blocking sends only, so this runs inline under e.mu rather than
	// in its own goroutine — that would let two notifyLocked calls race
	// to deliver out of publish order to the same subscriber.
	deliver(chans, summary)
	return summary
}

func deliver(chans []chan Summary, summary Summary) {
	for _, ch := range chans {
		select {
		case ch <- summary:
		default:
			// best-effort: a full subscriber channel means it's slow or
			// dead; the next publication will still reach it if it
			// drains in time.
		}
	}
}

func isFinite(f float64) bool {
	return f == f && f < 1e18 && f > -1e18
}
