package engine

// State is the session state machine described in spec.md §3–§4.2.
type State string

const (
	StateConnecting State = "Connecting"
	StateReady      State = "Ready"
	StateClosed     State = "Closed"
	StateError      State = "Error"
)

// Terminal reports whether state is one of the two terminal states.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateError
}

// Meta is the informational subset of connect parameters returned in
// snapshots — it never carries the password.
type Meta struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
}

// Peer is the engine's view of an attached transport. Concrete
// implementations (handlers.wsPeer) wrap a *websocket.Conn; the engine
// only needs to know whether it's open, send binary/text frames to it,
// and close it with a reason code.
type Peer interface {
	ID() string
	Open() bool
	SendBinary(p []byte) error
	SendText(p []byte) error
	Close(code int, reason string)
}

// Counts is the per-state tally carried on every Summary.
type Counts struct {
	Total      int `json:"total"`
	Ready      int `json:"ready"`
	Connecting int `json:"connecting"`
	Error      int `json:"error"`
	Closed     int `json:"closed"`
}

// Summary is the versioned change-notification described in spec.md §3
// and §4.8.
type Summary struct {
	Version    uint64   `json:"version"`
	Ts         int64    `json:"ts"`
	Reason     string   `json:"reason"`
	ChangedIDs []string `json:"changedIds,omitempty"`
	Counts     Counts   `json:"counts"`
}

// Notification reasons (spec.md §3).
const (
	ReasonCreated     = "created"
	ReasonDeleted     = "deleted"
	ReasonState       = "state"
	ReasonWSAttached  = "ws-attached"
	ReasonWSDetached  = "ws-detached"
	ReasonResize      = "resize"
	ReasonIdleTimeout = "idle-timeout"
)

// Close codes applied to peer transports on terminal transitions
// (spec.md §4.2).
const (
	CloseAdministrative = 1001 // delete, idle sweep
	CloseUpstreamFailed = 1011 // SSH/shell error
)

// SessionView is the public, handle-free projection of a Session
// returned by Snapshot and Create (spec.md §4.1).
type SessionView struct {
	ID              string `json:"id"`
	State           State  `json:"state"`
	CreatedAt       int64  `json:"createdAt"`
	LastActivityAt  int64  `json:"lastActivityAt"`
	IdleTimeoutMs   int64  `json:"idleTimeoutMs"`
	Cols            int    `json:"cols"`
	Rows            int    `json:"rows"`
	AttachedClients int    `json:"attachedClients"`
	Meta            Meta   `json:"meta"`
}

// Snapshot is the full-registry view returned by GET /connections.
type Snapshot struct {
	Version  uint64        `json:"version"`
	Ts       int64         `json:"ts"`
	Sessions []SessionView `json:"sessions"`
}
