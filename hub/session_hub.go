package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-storefront/utils"
)

// writeWait bounds a single write so a stalled client cannot hold up publishing.
const writeWait = 10 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// SessionHub holds the websocket clients of every storefront session and
// pushes storefront events to the clients of one session.
type SessionHub struct {
	clients   map[*websocket.Conn]string // conn -> session key
	writeWait time.Duration
	mutex     sync.Mutex
}

func NewSessionHub() *SessionHub {
	return &SessionHub{
		clients:   make(map[*websocket.Conn]string),
		writeWait: writeWait,
	}
}

// Register adds a connection for a session.
func (h *SessionHub) Register(conn *websocket.Conn, sessionKey string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = sessionKey
}

// Unregister drops and closes a connection.
func (h *SessionHub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *SessionHub) ClientCount(sessionKey string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, key := range h.clients {
		if key == sessionKey {
			n++
		}
	}
	return n
}

// Publish sends an event to every client of the session. Clients that fail a
// write are dropped.
func (h *SessionHub) Publish(sessionKey string, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, key := range h.clients {
		if key != sessionKey {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.WithField("session", sessionKey).Errorf("Error sending %s event: %v", event, err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}
	utils.InfoLogger.WithFields(logrus.Fields{"session": sessionKey, "event": event, "clients": sent}).Debug("event published")
}
