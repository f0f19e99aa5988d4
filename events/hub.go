// Package events pushes session and voter search state to connected UIs
// over websocket.
package events

import (
	"sync"

	"github.com/goccy/go-json"

	"github.com/mbolis/field-survey/log"
)

type Type string

const (
	TypeSession Type = "session"
	TypeSearch  Type = "search"
)

type Message struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const sendBuffer = 64

type client struct {
	send chan []byte
}

// Hub fans messages out to every connected client. A client that connects
// late first receives the latest message of each type.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	// owned by run
	clients map[*client]struct{}
	latest  map[Type][]byte
}

func NewHub() *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		latest:     make(map[Type][]byte),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			for _, t := range []Type{TypeSession, TypeSearch} {
				if data, ok := h.latest[t]; ok {
					c.send <- data
				}
			}
			log.Debugf("events: client connected, %d total", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Debugf("events: client disconnected, %d total", len(h.clients))
			}

		case data := <-h.broadcast:
			var msg struct{ Type Type }
			if err := json.Unmarshal(data, &msg); err == nil {
				h.latest[msg.Type] = data
			}
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// slow client, it catches up with the next message
				}
			}

		case <-h.done:
			for c := range h.clients {
				close(c.send)
			}
			h.clients = nil
			return
		}
	}
}

// Publish queues payload for every client. It never blocks the caller; the
// message is dropped when the hub is closed or saturated.
func (h *Hub) Publish(t Type, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("events.publish.marshal: ", err)
		return
	}
	msg, err := json.Marshal(Message{Type: t, Payload: data})
	if err != nil {
		log.Error("events.publish.marshal: ", err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		log.Warnf("events: broadcast queue full, dropping %s message", t)
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
