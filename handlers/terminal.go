package handlers

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sshbridge/config"
	"sshbridge/engine"
)

// TerminalHandler is the WebSocket attachment & control protocol
// component (spec.md §4.4).
type TerminalHandler struct {
	eng      *engine.Engine
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewTerminalHandler(cfg *config.Config, eng *engine.Engine, log zerolog.Logger) *TerminalHandler {
	return &TerminalHandler{
		eng: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWSOrigin(cfg.Origins()),
		},
		log: log,
	}
}

// controlFrame is the tagged-union inbound control message (spec.md
// §3, "Control Frame").
type controlFrame struct {
	Type string          `json:"type"`
	Cols *float64        `json:"cols"`
	Rows *float64        `json:"rows"`
	Data json.RawMessage `json:"data"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseControlFrame attempts to decode a peer message as a control
// frame. It returns ok=false for anything that isn't trimmed,
// brace-delimited JSON with a string "type" — spec.md §4.4 step 4's
// raw-passthrough fallback applies to everything ok=false covers.
func parseControlFrame(msgType int, data []byte) (controlFrame, bool) {
	if msgType != websocket.TextMessage {
		return controlFrame{}, false
	}
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return controlFrame{}, false
	}
	var frame controlFrame
	if err := json.Unmarshal([]byte(text), &frame); err != nil || frame.Type == "" {
		return controlFrame{}, false
	}
	return frame, true
}

// stdinText coerces the control frame's "data" field to a string the
// way spec.md's String(data ?? "") does.
func stdinText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// HandleWebSocket serves GET /ws/{id}?readOnly=1.
func (h *TerminalHandler) HandleWebSocket(c *gin.Context) {
	id := c.Param("id")
	readOnly := c.Query("readOnly") == "1"

	sess, ok := h.eng.Lookup(id)
	if !ok || sess.State() != engine.StateReady {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(engine.CloseUpstreamFailed, "Connection not ready"),
			time.Now().Add(2*time.Second))
		conn.Close()
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	peer := newWSPeer(uuid.NewString(), conn, readOnly)
	if err := h.eng.Attach(sess, peer); err != nil {
		peer.Close(engine.CloseUpstreamFailed, "Connection not ready")
		return
	}
	defer h.eng.Detach(sess, peer)

	peer.SendText([]byte("\r\n[attached]\r\n"))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.eng.Touch(sess)

		if frame, ok := parseControlFrame(msgType, data); ok {
			switch frame.Type {
			case "resize":
				if readOnly {
					continue
				}
				if frame.Cols != nil && frame.Rows != nil && isFinite(*frame.Cols) && isFinite(*frame.Rows) {
					h.eng.Resize(id, int(*frame.Cols), int(*frame.Rows))
				}
			case "stdin":
				if readOnly {
					continue
				}
				h.eng.WriteStdin(sess, []byte(stdinText(frame.Data)))
			case "ping":
				_ = peer.SendText([]byte(`{"type":"pong"}`))
			case "detach":
				peer.Close(1000, "Detached")
				return
			}
			continue
		}

		if readOnly {
			continue
		}
		h.eng.WriteStdin(sess, data)
	}
}
