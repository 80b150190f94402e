package ws

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// readData returns the payload of the next "data:" line.
func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)
	if got := readData(t, r); got != `{"type":"connected"}` {
		t.Fatalf("first event = %s", got)
	}
	waitForClients(t, hub, 1)

	hub.Broadcast(Event{Type: "task.created", Payload: map[string]string{"id": "t-1"}})

	var ev struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal([]byte(readData(t, r)), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "task.created" || ev.Payload["id"] != "t-1" {
		t.Errorf("event = %+v", ev)
	}

	cancel()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Broadcast(Event{Type: "board.reset"})
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(slog.Default())
	c := &subscriber{ch: make(chan frame, 1)}
	hub.subs[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Broadcast(Event{Type: "task.updated"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full client buffer")
	}
	if len(c.ch) != 1 {
		t.Errorf("buffered = %d, want 1", len(c.ch))
	}
	if f := <-c.ch; f.seq != 1 {
		t.Errorf("kept frame seq = %d, want 1", f.seq)
	}
}

// openStream connects to srv and consumes the "connected" greeting.
func openStream(t *testing.T, ctx context.Context, url string) (*http.Response, *bufio.Reader) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	r := bufio.NewReader(resp.Body)
	if got := readData(t, r); got != `{"type":"connected"}` {
		t.Fatalf("first event = %s", got)
	}
	return resp, r
}

func TestHub_EventIDsIncrease(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, r := openStream(t, ctx, srv.URL)
	defer resp.Body.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(Event{Type: "task.created"})
	hub.Broadcast(Event{Type: "task.deleted"})

	var ids []string
	for len(ids) < 2 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.HasPrefix(line, "id: ") {
			ids = append(ids, strings.TrimSpace(strings.TrimPrefix(line, "id: ")))
		}
	}
	if ids[0] != "1" || ids[1] != "2" {
		t.Errorf("ids = %v, want [1 2]", ids)
	}
}

func TestHub_CloseEndsStreams(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer srv.Close()

	resp, r := openStream(t, context.Background(), srv.URL)
	defer resp.Body.Close()
	waitForClients(t, hub, 1)

	hub.Close()
	hub.Close() // idempotent

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(r)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("stream ended with %v, want clean EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after Close")
	}
	waitForClients(t, hub, 0)

	late, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("connect after close: %v", err)
	}
	late.Body.Close()
	if late.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status after close = %d, want 503", late.StatusCode)
	}
}

func TestHub_Heartbeat(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Heartbeat = 10 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, r := openStream(t, ctx, srv.URL)
	defer resp.Body.Close()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.TrimSpace(line) == ": ping" {
			return
		}
	}
}
