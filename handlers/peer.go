package handlers

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wsPeer adapts a *websocket.Conn to engine.Peer. gorilla/websocket
// allows only one concurrent writer per connection, but this peer is
// written to from two places — the fan-out pump and this handler's own
// ping/pong replies — so writes are serialized behind writeMu.
type wsPeer struct {
	id       string
	conn     *websocket.Conn
	readOnly bool

	writeMu sync.Mutex
	closed  atomic.Bool
}

func newWSPeer(id string, conn *websocket.Conn, readOnly bool) *wsPeer {
	return &wsPeer{id: id, conn: conn, readOnly: readOnly}
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Open() bool { return !p.closed.Load() }

func (p *wsPeer) SendBinary(b []byte) error {
	if p.closed.Load() {
		return websocket.ErrCloseSent
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (p *wsPeer) SendText(b []byte) error {
	if p.closed.Load() {
		return websocket.ErrCloseSent
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, b)
}

// Close sends a close frame with code/reason and tears down the
// connection. Safe to call more than once or concurrently with a
// read-loop failure — only the first call does anything.
func (p *wsPeer) Close(code int, reason string) {
	if p.closed.Swap(true) {
		return
	}
	p.writeMu.Lock()
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(2*time.Second))
	p.writeMu.Unlock()
	p.conn.Close()
}
