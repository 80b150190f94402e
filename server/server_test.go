package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/planner/board"
	"github.com/GoCodeAlone/planner/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s := New(*cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetBoard(board.NewMemory())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestServer_BoardScenario(t *testing.T) {
	_, ts := newTestServer(t, nil)

	code, alice := call(t, ts, http.MethodPost, "/api/agents", `{"name":"Alice","role":"Senior Dev"}`)
	require.Equal(t, http.StatusCreated, code)

	code, created := call(t, ts, http.MethodPost, "/api/tasks", `{"title":"Fix login bug","priority":"high"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "todo", created["status"])
	assert.Nil(t, created["assigned_to"])
	taskPath := "/api/tasks/" + created["id"].(string)

	code, assigned := call(t, ts, http.MethodPatch, taskPath+"/assign", `{"agent_id":"`+alice["id"].(string)+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"id": alice["id"], "name": "Alice", "role": "Senior Dev"}, assigned["assigned_to"])

	code, done := call(t, ts, http.MethodPatch, taskPath+"/status", `{"status":"done"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "done", done["status"])
	assert.NotNil(t, done["updated_at"])

	code, dash := call(t, ts, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, dash["total"])
	assert.EqualValues(t, 1, dash["by_status"].(map[string]any)["done"])
	assert.EqualValues(t, 0, dash["by_status"].(map[string]any)["todo"])
	assert.EqualValues(t, 1, dash["by_priority"].(map[string]any)["high"])

	code, _ = call(t, ts, http.MethodDelete, taskPath, "")
	assert.Equal(t, http.StatusNoContent, code)
	code, body := call(t, ts, http.MethodGet, taskPath, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "task not found", body["error"])
}

func TestServer_ResetRoute(t *testing.T) {
	_, disabled := newTestServer(t, nil)
	code, _ := call(t, disabled, http.MethodPost, "/api/admin/reset", "")
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, code)

	_, enabled := newTestServer(t, func(c *config.Config) { c.Server.EnableReset = true })
	call(t, enabled, http.MethodPost, "/api/tasks", `{"title":"x"}`)
	code, _ = call(t, enabled, http.MethodPost, "/api/admin/reset", "")
	assert.Equal(t, http.StatusNoContent, code)
	_, dash := call(t, enabled, http.MethodGet, "/api/dashboard", "")
	assert.EqualValues(t, 0, dash["total"])
}

func TestServer_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	code, _ := call(t, ts, http.MethodPost, "/api/dashboard", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestServer_RequestID(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

	resp, err = ts.Client().Get(ts.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader), "generated when absent")
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(contextWithRequestID(context.Background(), "abc")))
}

func TestServer_EventsStream(t *testing.T) {
	s, ts := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	nextData := func() string {
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	require.Equal(t, `{"type":"connected"}`, nextData())
	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	code, _ := call(t, ts, http.MethodPost, "/api/tasks", `{"title":"streamed"}`)
	require.Equal(t, http.StatusCreated, code)

	var ev struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(nextData()), &ev))
	assert.Equal(t, "task.created", ev.Type)
	assert.Equal(t, "streamed", ev.Payload["title"])
}

func TestServer_StopEndsEventStreams(t *testing.T) {
	cfg := config.DefaultConfig()
	s := New(*cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetBoard(board.NewMemory())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: {\"type\":\"connected\"}\n", line)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, s.Stop(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
	assert.Equal(t, 0, s.Hub().ClientCount())
}

func TestServer_StartBadAddr(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "not-an-address"
	s := New(*cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetBoard(board.NewMemory())
	assert.ErrorContains(t, s.Start(), "listen not-an-address")
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := New(*config.DefaultConfig(), "test", slog.Default())
	assert.NoError(t, s.Stop(context.Background()))
}
