package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/username/moneydesk/backend/src/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressHub fans filter progress events out to connected dashboard clients.
// Events carry the request's sequence number so a client can ignore progress
// belonging to a superseded query.
type ProgressHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[*websocket.Conn]bool)}
}

type progressEvent struct {
	Type      string  `json:"type"`
	Seq       uint64  `json:"seq"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

// PublishProgress implements services.ProgressSink.
func (h *ProgressHub) PublishProgress(seq uint64, processed, total int) {
	fraction := 1.0
	if total > 0 {
		fraction = float64(processed) / float64(total)
	}
	payload, err := json.Marshal(progressEvent{
		Type:      "filter_progress",
		Seq:       seq,
		Processed: processed,
		Total:     total,
		Fraction:  fraction,
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.L.Debug("Dropping progress client", "error", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

// HandleProgressSocket upgrades the connection and keeps it registered until
// the client goes away.
func (h *ProgressHub) HandleProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()
	logger.L.Info("Progress client connected", "clients", clientCount)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			// Clients never send meaningful frames; reading just detects close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
