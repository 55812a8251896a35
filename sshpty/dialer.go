package sshpty

import (
	"time"

	"sshbridge/engine"
)

// Dialer adapts the package-level Connect/OpenShell/StartKeepalive
// functions to engine.Dialer so Engine.Create never imports
// golang.org/x/crypto/ssh directly.
type Dialer struct {
	ReadyTimeout      time.Duration
	KeepaliveInterval time.Duration
	KeepaliveMax      int
	Term              string
}

func NewDialer() *Dialer {
	return &Dialer{
		ReadyTimeout:      20 * time.Second,
		KeepaliveInterval: 15 * time.Second,
		KeepaliveMax:      3,
		Term:              "xterm-256color",
	}
}

func (d *Dialer) Connect(host string, port int, user, password string) (engine.Transport, error) {
	return Connect(Options{
		Host:              host,
		Port:              port,
		User:              user,
		Password:          password,
		ReadyTimeout:      d.ReadyTimeout,
		KeepaliveInterval: d.KeepaliveInterval,
		KeepaliveMax:      d.KeepaliveMax,
	})
}

func (d *Dialer) OpenShell(t engine.Transport, cols, rows int) (engine.Shell, error) {
	c := t.(*Client)
	return c.OpenShell(cols, rows, d.Term)
}

func (d *Dialer) StartKeepalive(t engine.Transport, onFail func(error)) {
	c := t.(*Client)
	c.StartKeepalive(Options{
		KeepaliveInterval: d.KeepaliveInterval,
		KeepaliveMax:      d.KeepaliveMax,
	}, onFail)
}
