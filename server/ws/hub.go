// Package ws implements a Server-Sent Events (SSE) hub for real-time board updates.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultHeartbeat is how often an idle stream receives a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// Event is a typed real-time event broadcast to connected clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// frame is an encoded event plus its stream sequence number.
type frame struct {
	seq  uint64
	data []byte
}

// subscriber is one open /events stream.
type subscriber struct {
	ch chan frame
}

// Hub fans board change events out to SSE subscribers.
// After Close every open stream ends and new ones are refused.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	seq    uint64
	logger *slog.Logger

	// Heartbeat is the keep-alive interval; zero disables it.
	Heartbeat time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub ready to accept connections.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:      make(map[*subscriber]struct{}),
		logger:    logger,
		Heartbeat: DefaultHeartbeat,
		done:      make(chan struct{}),
	}
}

// Broadcast sends an event to all subscribers. Each event gets the next
// sequence number, used as the SSE id. A subscriber whose buffer is full
// misses the event; mutations never wait on readers.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("hub broadcast marshal", slog.String("type", event.Type), slog.Any("err", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	f := frame{seq: h.seq, data: data}
	for s := range h.subs {
		select {
		case s.ch <- f:
		default:
			h.logger.Debug("hub dropped event for slow subscriber",
				slog.String("type", event.Type),
				slog.Uint64("seq", f.seq),
			)
		}
	}
}

// ClientCount reports the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every open stream and refuses new ones. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.logger.Debug("hub closed", slog.Int("subscribers", h.ClientCount()))
	})
}

func (h *Hub) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) subscribe() *subscriber {
	s := &subscriber{ch: make(chan frame, 64)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// ServeSSE streams events until the client goes away or the hub is closed.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	if h.closed() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	s := h.subscribe()
	defer h.unsubscribe(s)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n") //nolint:errcheck
	flusher.Flush()

	var tick <-chan time.Time
	if h.Heartbeat > 0 {
		t := time.NewTicker(h.Heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-tick:
			fmt.Fprint(w, ": ping\n\n") //nolint:errcheck
			flusher.Flush()
		case f := <-s.ch:
			writeFrame(w, f)
			flusher.Flush()
		}
	}
}

// writeFrame writes one SSE message. A data line must not contain newlines.
func writeFrame(w http.ResponseWriter, f frame) {
	fmt.Fprintf(w, "id: %d\n", f.seq) //nolint:errcheck
	for _, line := range strings.Split(string(f.data), "\n") {
		fmt.Fprintf(w, "data: %s\n", line) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
}
