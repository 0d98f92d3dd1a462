package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"godoor/internal"
)

// AnalysisEvent is pushed to SSE clients when an analysis is stored
type AnalysisEvent struct {
	EventType    string    `json:"event_type"`
	AnalysisID   string    `json:"analysis_id"`
	TreatmentArm string    `json:"treatment_arm"`
	ControlArm   string    `json:"control_arm"`
	WinRatio     string    `json:"win_ratio"`
	NetBenefit   float64   `json:"net_benefit"`
	PValue       float64   `json:"p_value"`
	Timestamp    time.Time `json:"timestamp"`
}

// SSEHub fans analysis events out to Server-Sent Events clients
type SSEHub struct {
	clients   map[chan AnalysisEvent]struct{}
	clientsMu sync.RWMutex
	broadcast chan AnalysisEvent
	done      chan struct{}
	closeOnce sync.Once
	keepAlive time.Duration
	logger    *internal.Logger
}

// NewSSEHub creates a hub and starts its fan-out loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:   make(map[chan AnalysisEvent]struct{}),
		broadcast: make(chan AnalysisEvent, 100),
		done:      make(chan struct{}),
		keepAlive: 30 * time.Second,
		logger:    logger.With("SSE"),
	}

	go hub.run()
	return hub
}

// run delivers broadcasts until Close
func (h *SSEHub) run() {
	for {
		select {
		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("Client channel full, skipping event %s", event.AnalysisID)
				}
			}
			h.clientsMu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the fan-out loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Subscribe registers a client; call the returned func to leave
func (h *SSEHub) Subscribe() (<-chan AnalysisEvent, func()) {
	ch := make(chan AnalysisEvent, 10)

	h.clientsMu.Lock()
	h.clients[ch] = struct{}{}
	total := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Debug("Client registered (total clients: %d)", total)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.clientsMu.Lock()
			delete(h.clients, ch)
			close(ch)
			remaining := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug("Client unregistered (remaining clients: %d)", remaining)
		})
	}
}

// Broadcast queues an event for every client
func (h *SSEHub) Broadcast(event AnalysisEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event %s", event.AnalysisID)
	}
}

// HandleSSE streams analysis events to one client
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, leave := h.Subscribe()
	defer leave()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}

// GetClientCount returns the number of connected clients
func (h *SSEHub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
