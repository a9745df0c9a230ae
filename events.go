// Santabox change notifications
//
// Clients poll the REST API for state; this socket only tells them when
// a poll is worth making. Every successful mutation broadcasts a small
// state_changed message naming the resource that moved, and clients
// re-fetch whatever they care about. No game state ever travels over
// the socket, so a client that never connects loses nothing but
// latency.

package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// StateChangedMessage is the only message type sent to clients.
type StateChangedMessage struct {
	Type     string `json:"type"`     // always "state_changed"
	Resource string `json:"resource"` // "participants", "gifts", "game", or "all"
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type Hub struct {
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	events   chan StateChangedMessage
}

func newHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan StateChangedMessage, 64),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

			logf(cfg, "EVENTS: Client connected (%d total)", len(h.clients))

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

			logf(cfg, "EVENTS: Client disconnected (%d total)", len(h.clients))

		case msg := <-h.events:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; it will catch up on its next poll
				}
			}
		}
	}
}

// notify is called from request handlers after a successful mutation.
// It never blocks the request.
func (h *Hub) notify(resource string) {
	select {
	case h.events <- StateChangedMessage{Type: "state_changed", Resource: resource}:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveEvents(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

// readPump discards everything the client sends; its only job is
// noticing the connection closing.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// notifyAfter wraps a handler so the hub hears about mutations that
// actually landed; error responses stay silent.
func notifyAfter(hub *Hub, resource string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r, p)

		if rec.status < http.StatusBadRequest {
			hub.notify(resource)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func registerEventRoutes(cfg *Config, hub *Hub, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/events", serveEvents(cfg, hub))
}
