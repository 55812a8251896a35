package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"sshbridge/engine"
)

type fakeDialer struct {
	connectErr error
}

type fakeTransport struct{}

func (fakeTransport) Close() error { return nil }

type fakeShell struct{ closed chan struct{} }

func newFakeShell() *fakeShell { return &fakeShell{closed: make(chan struct{})} }

func (s *fakeShell) Read(p []byte) (int, error) {
	<-s.closed
	return 0, io.EOF
}
func (s *fakeShell) Write(p []byte) (int, error) { return len(p), nil }
func (s *fakeShell) Resize(cols, rows int) error { return nil }
func (s *fakeShell) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func (d *fakeDialer) Connect(host string, port int, user, password string) (engine.Transport, error) {
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return fakeTransport{}, nil
}

func (d *fakeDialer) OpenShell(t engine.Transport, cols, rows int) (engine.Shell, error) {
	return newFakeShell(), nil
}

func (d *fakeDialer) StartKeepalive(t engine.Transport, onFail func(error)) {}

func newTestRouter(t *testing.T) (*gin.Engine, *AdminHandler) {
	gin.SetMode(gin.TestMode)
	eng := engine.New(engine.Options{MaxConnections: 2, Dialer: &fakeDialer{}})
	h := NewAdminHandler(eng, "")
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.POST("/connections", h.CreateConnection)
	r.GET("/connections", h.ListConnections)
	r.DELETE("/connections/:id", h.DeleteConnection)
	r.POST("/connections/:id/resize", h.ResizeConnection)
	return r, h
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReportsOkAndTimestamp(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["ok"])
	require.NotNil(t, body["ts"])
}

func TestCreateConnectionReturnsWsPath(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
		"host": "h", "username": "u", "password": "p",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Ready", body["state"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "/ws/"+id, body["wsPath"])
}

func TestCreateConnectionRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{"host": "h"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConnectionFailsAtCapacityWith500AndDetail(t *testing.T) {
	r, _ := newTestRouter(t)
	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
			"host": "h", "username": "u", "password": "p",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
		"host": "h", "username": "u", "password": "p",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body["detail"], "MAX_CONNECTIONS")
}

func TestDeleteConnectionIsIdempotentAtHTTPLayer(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
		"host": "h", "username": "u", "password": "p",
	})
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	w1 := doJSON(t, r, http.MethodDelete, "/connections/"+id, nil)
	require.Equal(t, http.StatusOK, w1.Code)
	var ok1 map[string]any
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &ok1))
	require.Equal(t, true, ok1["ok"])

	w2 := doJSON(t, r, http.MethodDelete, "/connections/"+id, nil)
	require.Equal(t, http.StatusNotFound, w2.Code)
}

func TestDeleteUnknownConnectionReturns404(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodDelete, "/connections/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestResizeConnectionRoundTrips(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
		"host": "h", "username": "u", "password": "p",
	})
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	wr := doJSON(t, r, http.MethodPost, "/connections/"+id+"/resize", map[string]any{"cols": 200, "rows": 50})
	require.Equal(t, http.StatusOK, wr.Code)
	var resized map[string]any
	require.NoError(t, json.Unmarshal(wr.Body.Bytes(), &resized))
	require.Equal(t, true, resized["ok"])
	require.Equal(t, float64(200), resized["cols"])
	require.Equal(t, float64(50), resized["rows"])

	ws := doJSON(t, r, http.MethodGet, "/connections", nil)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(ws.Body.Bytes(), &snap))
	sessions := snap["sessions"].([]any)
	require.Len(t, sessions, 1)
	sess := sessions[0].(map[string]any)
	require.Equal(t, float64(200), sess["cols"])
	require.Equal(t, float64(50), sess["rows"])
}

func TestResizeRejectsNonPositiveWith400(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/connections", map[string]any{
		"host": "h", "username": "u", "password": "p",
	})
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	wr := doJSON(t, r, http.MethodPost, "/connections/"+id+"/resize", map[string]any{"cols": 0, "rows": 0})
	require.Equal(t, http.StatusBadRequest, wr.Code)
}

func TestResizeUnknownConnectionReturns404(t *testing.T) {
	r, _ := newTestRouter(t)
	wr := doJSON(t, r, http.MethodPost, "/connections/does-not-exist/resize", map[string]any{"cols": 80, "rows": 24})
	require.Equal(t, http.StatusNotFound, wr.Code)
}
