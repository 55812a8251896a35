package engine

// Kind classifies a failure the way the admin facade reports it to the
// HTTP layer (spec.md §7).
type Kind string

const (
	KindInvalidRequest   Kind = "invalid_request"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindNotFound         Kind = "not_found"
	KindNotReady         Kind = "not_ready"
	KindConnectError     Kind = "connect_error"
	KindShellError       Kind = "shell_error"
	KindPeerError        Kind = "peer_error"
	KindInternal         Kind = "internal"
)

// Error carries a Kind alongside a human-readable detail, so the HTTP
// layer can map it to a status code without re-deriving the reason.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func newError(kind Kind, message, detail string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}
