package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Consumers connect from arbitrary origins; auth is out of band.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the envelope pushed to connected clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type outbound struct {
	userID  string // empty addresses every client
	payload []byte
}

// Hub fans events out to connected WebSocket clients. Clients optionally
// identify as a user to receive addressed notifications.
type Hub struct {
	log        *zap.SugaredLogger
	register   chan *client
	unregister chan *client
	send       chan outbound
	clients    map[*client]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:        log,
		register:   make(chan *client),
		unregister: make(chan *client),
		send:       make(chan outbound, sendBufferSize),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.out)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debugw("websocket client connected", "user", c.userID)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.out)
			}
		case msg := <-h.send:
			for c := range h.clients {
				if msg.userID != "" && c.userID != msg.userID {
					continue
				}
				select {
				case c.out <- msg.payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					delete(h.clients, c)
					close(c.out)
				}
			}
		}
	}
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.enqueue("", event, data)
}

// SendToUser pushes an event to the clients identified as userID.
func (h *Hub) SendToUser(userID, event string, data interface{}) {
	h.enqueue(userID, event, data)
}

func (h *Hub) enqueue(userID, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.log.Errorw("marshaling websocket message", "event", event, "error", err)
		return
	}

	select {
	case h.send <- outbound{userID: userID, payload: payload}:
	default:
		h.log.Warnw("websocket send queue full, dropping message", "event", event)
	}
}

// HandleWS upgrades an HTTP request to a hub connection. The optional "user"
// query parameter subscribes the connection to addressed notifications.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		out:    make(chan []byte, sendBufferSize),
		userID: r.URL.Query().Get("user"),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	out    chan []byte
	userID string
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// The stream is push-only; inbound frames are drained for control
		// handling until the peer goes away.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
