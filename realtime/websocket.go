package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatSource provides the advisor chat-list subscription.
type ChatSource interface {
	SubscribeForAalim(aalimID string, onChange func([]models.Chat)) *Subscription
}

// MessageSource provides the per-chat message subscription.
type MessageSource interface {
	Subscribe(chatID string, onChange func([]models.Message)) *Subscription
}

// IncomingFrame is a join/leave request from the client. Topics follow the
// broker's naming: "chats:<aalimId>" and "messages:<chatId>".
type IncomingFrame struct {
	Event    string `json:"event"` // "join" | "leave"
	Topic    string `json:"topic"`
	Identity string `json:"identity,omitempty"`
}

// OutgoingFrame is one snapshot push to the client.
type OutgoingFrame struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// WSHandler bridges broker subscriptions onto websocket connections. A
// client may hold a message stream and a chat-list stream at once; the two
// are independent push channels with no ordering guarantee between them.
type WSHandler struct {
	Chats    ChatSource
	Messages MessageSource
	Notifier Notifier
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	subs map[string]*Subscription
}

// Serve upgrades the request and runs the connection until it closes. Every
// subscription opened over the connection is cancelled on the way out.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
		subs: make(map[string]*Subscription),
	}
	go c.writePump()
	h.readPump(c)
}

func (h *WSHandler) readPump(c *wsClient) {
	defer func() {
		c.cancelAll()
		close(c.send)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.S().Debugw("websocket closed", "error", err)
			}
			return
		}
		var frame IncomingFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			zap.S().Warnw("bad websocket frame", "error", err)
			continue
		}
		h.handleFrame(c, frame)
	}
}

func (h *WSHandler) handleFrame(c *wsClient, frame IncomingFrame) {
	switch frame.Event {
	case "join":
		h.join(c, frame)
	case "leave":
		c.cancel(frame.Topic)
	}
}

func (h *WSHandler) join(c *wsClient, frame IncomingFrame) {
	kind, id, ok := splitTopic(frame.Topic)
	if !ok {
		return
	}
	topic := frame.Topic
	var sub *Subscription
	switch kind {
	case "chats":
		sub = h.Chats.SubscribeForAalim(id, func(chats []models.Chat) {
			c.push(topic, chats)
		})
	case "messages":
		session := NewMessageSession(id, frame.Identity, h.Notifier)
		sub = h.Messages.Subscribe(id, func(messages []models.Message) {
			session.Apply(messages)
			c.push(topic, messages)
		})
	default:
		return
	}
	c.track(topic, sub)
}

func splitTopic(topic string) (kind, id string, ok bool) {
	parts := strings.SplitN(topic, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (c *wsClient) push(topic string, payload interface{}) {
	data, err := json.Marshal(OutgoingFrame{Topic: topic, Event: "snapshot", Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// slow consumer; drop the frame, the next change re-sends the full snapshot
	}
}

func (c *wsClient) track(topic string, sub *Subscription) {
	c.mu.Lock()
	if old, ok := c.subs[topic]; ok {
		old.Cancel()
	}
	c.subs[topic] = sub
	c.mu.Unlock()
}

func (c *wsClient) cancel(topic string) {
	c.mu.Lock()
	if sub, ok := c.subs[topic]; ok {
		sub.Cancel()
		delete(c.subs, topic)
	}
	c.mu.Unlock()
}

func (c *wsClient) cancelAll() {
	c.mu.Lock()
	for topic, sub := range c.subs {
		sub.Cancel()
		delete(c.subs, topic)
	}
	c.mu.Unlock()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
