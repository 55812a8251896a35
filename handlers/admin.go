package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sshbridge/engine"
)

// AdminHandler is the REST admin facade over the engine (spec.md §6):
// health, create/list/delete connections, and resize.
type AdminHandler struct {
	eng      *engine.Engine
	basePath string
}

func NewAdminHandler(eng *engine.Engine, basePath string) *AdminHandler {
	return &AdminHandler{eng: eng, basePath: basePath}
}

// connectionResponse is the 201 body for POST /connections (spec.md
// §6): the session view plus the wsPath the caller should attach to.
type connectionResponse struct {
	engine.SessionView
	WsPath string `json:"wsPath"`
}

// statusFor maps an engine.Error's Kind to the HTTP status spec.md §7
// names. CapacityExceeded maps to 500 rather than 503: the concrete
// REST table in spec.md §6 and the walkthrough in §8 scenario 6 both
// give 500 with a detail naming MAX_CONNECTIONS, which this handler
// follows over the summary table in §7.
func statusFor(err error) (int, string) {
	var e *engine.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "internal"
	}
	switch e.Kind {
	case engine.KindInvalidRequest:
		return http.StatusBadRequest, string(e.Kind)
	case engine.KindNotFound, engine.KindNotReady:
		return http.StatusNotFound, string(e.Kind)
	case engine.KindCapacityExceeded, engine.KindConnectError, engine.KindShellError, engine.KindPeerError, engine.KindInternal:
		return http.StatusInternalServerError, string(e.Kind)
	default:
		return http.StatusInternalServerError, string(e.Kind)
	}
}

func writeEngineError(c *gin.Context, err error) {
	status, kind := statusFor(err)
	c.JSON(status, gin.H{"error": kind, "detail": err.Error()})
}

// Health serves GET /healthz.
func (h *AdminHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "ts": h.eng.NowMs()})
}

type createConnectionRequest struct {
	Host          string `json:"host" binding:"required"`
	Port          int    `json:"port"`
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	Cols          int    `json:"cols"`
	Rows          int    `json:"rows"`
	IdleTimeoutMs int64  `json:"idleTimeoutMs"`
}

// CreateConnection serves POST /connections.
func (h *AdminHandler) CreateConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(engine.KindInvalidRequest), "detail": err.Error()})
		return
	}

	view, err := h.eng.Create(engine.CreateRequest{
		Host:          req.Host,
		Port:          req.Port,
		Username:      req.Username,
		Password:      req.Password,
		Cols:          req.Cols,
		Rows:          req.Rows,
		IdleTimeoutMs: req.IdleTimeoutMs,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, connectionResponse{
		SessionView: view,
		WsPath:      h.basePath + "/ws/" + view.ID,
	})
}

// ListConnections serves GET /connections.
func (h *AdminHandler) ListConnections(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.Snapshot())
}

// DeleteConnection serves DELETE /connections/{id}.
func (h *AdminHandler) DeleteConnection(c *gin.Context) {
	if err := h.eng.Delete(c.Param("id")); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type resizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// ResizeConnection serves POST /connections/{id}/resize.
func (h *AdminHandler) ResizeConnection(c *gin.Context) {
	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(engine.KindInvalidRequest), "detail": err.Error()})
		return
	}
	cols, rows, err := h.eng.Resize(c.Param("id"), req.Cols, req.Rows)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cols": cols, "rows": rows})
}
