// Package dashboard serves a live diagnostic view of a running tuning
// session: a JSON snapshot endpoint plus a websocket stream of phase
// transitions.
//
// Like internal/store, the dashboard is strictly additive: it observes
// the Tuning Controller through the same Observer hook the persistence
// layer uses and never influences tuning behavior.
package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local diagnostic dashboard, not exposed publicly
	},
}

// Hub maintains the set of connected dashboard websocket clients and
// broadcasts phase-transition events to all of them.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

// NewHub constructs an empty Hub. Call Run in its own goroutine once.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run drains the broadcast channel and fans each message out to every
// connected client, dropping clients whose write deadline expires.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("dashboard websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades an incoming request to a websocket connection and
// registers it as a broadcast recipient.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade dashboard websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Broadcast enqueues a JSON-encoded message for delivery to all clients.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// phaseEvent is the wire shape pushed to the dashboard on every
// PhaseEnded observer callback.
type phaseEvent struct {
	Type       string `json:"type"`
	Phase      uint64 `json:"phase"`
	Selected   string `json:"selected"`
	CostNanos  int64  `json:"costNanos"`
}

// invalidationEvent is pushed on every ConfigurationsInvalidated call.
type invalidationEvent struct {
	Type    string `json:"type"`
	Option  string `json:"option"`
	Removed int    `json:"removed"`
}

// Observer adapts a Hub into a controller.Observer so the Tuning
// Controller can report its state transitions without importing
// anything gin/websocket-related.
type Observer struct {
	hub           *Hub
	lastSpaceSize int
	lastActive    int
}

// NewObserver wires hub behind the controller.Observer interface.
func NewObserver(hub *Hub) *Observer {
	return &Observer{hub: hub}
}

func (o *Observer) SearchSpaceBuilt(size int) {
	o.lastSpaceSize = size
}

func (o *Observer) PhaseStarted(phase t.PhaseNumber, activeSetSize int) {
	o.lastActive = activeSetSize
}

func (o *Observer) PhaseEnded(phase t.PhaseNumber, selected t.Configuration, cost int64) {
	payload, err := json.Marshal(phaseEvent{
		Type:      "phase_ended",
		Phase:     uint64(phase),
		Selected:  selected.String(),
		CostNanos: cost,
	})
	if err != nil {
		return
	}
	o.hub.Broadcast(payload)
}

func (o *Observer) ConfigurationsInvalidated(option t.Newton3, removed int) {
	payload, err := json.Marshal(invalidationEvent{
		Type:    "configurations_invalidated",
		Option:  option.String(),
		Removed: removed,
	})
	if err != nil {
		return
	}
	o.hub.Broadcast(payload)
}

func (o *Observer) Reset() {}
