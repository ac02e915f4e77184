package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/flume/pkg/domain"
)

// Message is one event fanned out to SSE subscribers.
type Message struct {
	Kind string // graph, connection or lifecycle
	Data string // JSON payload
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Message]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- Message]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe() (chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

func (sm *StreamManager) Broadcast(msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "kind", msg.Kind, "payload_size", len(msg.Data))
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "kind", msg.Kind)
		}
	}
}

func (sm *StreamManager) publish(kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("StreamManager: encode failed", "kind", kind, "error", err)
		return
	}
	sm.Broadcast(Message{Kind: kind, Data: string(data)})
}

type lifecyclePayload struct {
	*domain.LifecycleEvent
	Error string `json:"error,omitempty"`
}

// Hooks returns pipeline hooks that broadcast every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGraphChange: func(_ context.Context, e *domain.GraphEvent) {
			sm.publish("graph", e)
		},
		OnConnectionChange: func(_ context.Context, e *domain.ConnectionEvent) {
			sm.publish("connection", e)
		},
		OnLifecycle: func(_ context.Context, e *domain.LifecycleEvent) {
			p := lifecyclePayload{LifecycleEvent: e}
			if e.Err != nil {
				p.Error = e.Err.Error()
			}
			sm.publish("lifecycle", p)
		},
	}
}

// SubscribeEvents handles GET /events (SSE). The optional "watch" query
// parameter is a comma-separated list of kinds to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	watch := make(map[string]bool)
	if q := r.URL.Query().Get("watch"); q != "" {
		for _, kind := range strings.Split(q, ",") {
			watch[strings.TrimSpace(kind)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[msg.Kind] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Kind, msg.Data)
			flusher.Flush()
		}
	}
}
