package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"nhooyr.io/websocket"

	"github.com/JustinTDCT/TrackHound/internal/auth"
)

// ──────────────────── WebSocket Hub ────────────────────

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	// lastScan holds the most recent scan event so a client connecting
	// mid-run sees current progress immediately.
	scanMu   sync.RWMutex
	lastScan json.RawMessage

	jwtSecret string
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewHub(jwtSecret string) *Hub {
	return &Hub{
		clients:   make(map[*client]bool),
		jwtSecret: jwtSecret,
	}
}

func (h *Hub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return
	}

	if strings.HasPrefix(event, "scan:") {
		h.trackScan(event, msg)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) trackScan(event string, raw []byte) {
	h.scanMu.Lock()
	defer h.scanMu.Unlock()
	switch event {
	case "scan:complete", "scan:failed":
		h.lastScan = nil
	default:
		h.lastScan = json.RawMessage(raw)
	}
}

func (h *Hub) replayScan(c *client) {
	h.scanMu.RLock()
	defer h.scanMu.RUnlock()
	if h.lastScan == nil {
		return
	}
	select {
	case c.send <- h.lastScan:
	default:
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := auth.ParseToken(h.jwtSecret, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.addClient(c)
	h.replayScan(c)
	log.Printf("WebSocket client connected: %s", userID)

	ctx := r.Context()

	// Writer goroutine
	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and handles pings.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.removeClient(c)
	log.Printf("WebSocket client disconnected: %s", userID)
}
