// Package sshpty is the SSH/PTY adapter described in spec.md §4.3: it
// dials an SSH transport, requests an interactive PTY-attached shell, and
// exposes the byte stream plus resize/close operations the engine's
// fan-out pump needs. Grounded in the pack's
// kofany-sshManager/internal/ssh session handling (RequestPty,
// session.Shell(), WindowChange, SendRequest-based keepalive).
package sshpty

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Options configures a Connect call. Zero values are filled with the
// defaults spec.md §4.3 and §5 name.
type Options struct {
	Host              string
	Port              int
	User              string
	Password          string
	ReadyTimeout      time.Duration
	KeepaliveInterval time.Duration
	KeepaliveMax      int
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = 22
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 20 * time.Second
	}
	if o.KeepaliveInterval <= 0 {
		o.KeepaliveInterval = 15 * time.Second
	}
	if o.KeepaliveMax <= 0 {
		o.KeepaliveMax = 3
	}
	return o
}

// ConnectError wraps any failure to establish the SSH transport —
// DNS, TCP, handshake, auth, or timeout.
type ConnectError struct {
	Op  string
	Err error
}

func (e *ConnectError) Error() string { return "ssh connect: " + e.Op + ": " + e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// ShellError wraps any failure to allocate the PTY shell.
type ShellError struct {
	Op  string
	Err error
}

func (e *ShellError) Error() string { return "ssh shell: " + e.Op + ": " + e.Err.Error() }
func (e *ShellError) Unwrap() error { return e.Err }

// Client owns one SSH transport for the lifetime of a session.
type Client struct {
	conn *ssh.Client

	stopOnce sync.Once
	stop     chan struct{}
}

// Connect establishes the SSH transport with password auth. v1 carries
// no host-key store (spec.md Non-goals exclude SSH key-based auth and
// TLS termination); host keys are accepted unconditionally, matching a
// password-only jump-proxy rather than an operator's own trusted client.
func Connect(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            []ssh.AuthMethod{ssh.Password(opts.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         opts.ReadyTimeout,
	}

	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))
	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, &ConnectError{Op: "dial", Err: err}
	}

	c := &Client{conn: conn, stop: make(chan struct{})}
	return c, nil
}

// StartKeepalive sends periodic keepalive requests; after KeepaliveMax
// consecutive failures it calls onFail exactly once and stops. Dead-peer
// detection without unnecessary chatter (spec.md §4.3).
func (c *Client) StartKeepalive(opts Options, onFail func(error)) {
	opts = opts.withDefaults()
	go func() {
		ticker := time.NewTicker(opts.KeepaliveInterval)
		defer ticker.Stop()
		misses := 0
		for {
			select {
			case <-ticker.C:
				_, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil)
				if err != nil {
					misses++
					if misses >= opts.KeepaliveMax {
						onFail(err)
						return
					}
					continue
				}
				misses = 0
			case <-c.stop:
				return
			}
		}
	}()
}

// OpenShell requests an interactive PTY-attached shell (spec.md §4.3).
func (c *Client) OpenShell(cols, rows int, term string) (*Shell, error) {
	if term == "" {
		term = "xterm-256color"
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return nil, &ShellError{Op: "new-session", Err: err}
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty(term, rows, cols, modes); err != nil {
		session.Close()
		return nil, &ShellError{Op: "request-pty", Err: err}
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, &ShellError{Op: "stdin-pipe", Err: err}
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, &ShellError{Op: "stdout-pipe", Err: err}
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, &ShellError{Op: "shell", Err: err}
	}

	sh := &Shell{
		session: session,
		stdin:   stdin,
		stdout:  stdout,
		done:    make(chan struct{}),
	}
	go func() {
		sh.waitErr = session.Wait()
		close(sh.done)
	}()

	return sh, nil
}

// Close ends the SSH transport and stops the keepalive loop.
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return c.conn.Close()
}

// Shell is a PTY-attached interactive shell stream. Read emits the
// lazy, possibly-infinite sequence of output bytes spec.md §4.3
// describes; it returns io.EOF once the remote shell exits, and the
// shell's exit error is available through Done/Err.
type Shell struct {
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader

	done    chan struct{}
	waitErr error
}

func (s *Shell) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *Shell) Write(p []byte) (int, error) { return s.stdin.Write(p) }

// Resize requests a window-change; per spec.md §4.5 implementations
// tolerate the underlying operation being unavailable.
func (s *Shell) Resize(cols, rows int) error {
	if err := s.session.WindowChange(rows, cols); err != nil {
		return err
	}
	return nil
}

func (s *Shell) Close() error { return s.session.Close() }

// Done is closed once the remote shell process exits.
func (s *Shell) Done() <-chan struct{} { return s.done }

// Err returns the shell's exit error, valid after Done is closed.
func (s *Shell) Err() error { return s.waitErr }
