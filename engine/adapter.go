package engine

import "io"

// Transport is the owned SSH handle. *sshpty.Client satisfies this
// structurally — the engine never imports the sshpty package directly,
// keeping the fan-out/registry core decoupled from the transport
// implementation (spec.md design note on cyclic ownership).
type Transport interface {
	Close() error
}

// Shell is the owned PTY stream handle. *sshpty.Shell satisfies this
// structurally.
type Shell interface {
	io.Reader
	io.Writer
	Resize(cols, rows int) error
	Close() error
}

// Dialer opens the SSH transport and shell for a Create call. The real
// implementation lives in sshpty.Connect/OpenShell; tests supply a fake
// to exercise the registry/fan-out without a network.
type Dialer interface {
	Connect(host string, port int, user, password string) (Transport, error)
	OpenShell(t Transport, cols, rows int) (Shell, error)
	StartKeepalive(t Transport, onFail func(error))
}
