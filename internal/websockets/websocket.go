package websockets

import (
	"time"

	"washplan/internal/events"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MESSAGE_TYPE_PING             = "ping"
	MESSAGE_TYPE_PONG             = "pong"
	MESSAGE_TYPE_WELCOME          = "welcome"
	MESSAGE_TYPE_SCHEDULE_UPDATED = "schedule_updated"
	PING_INTERVAL                 = 30 * time.Second
	PONG_TIMEOUT                  = 60 * time.Second
	WRITE_TIMEOUT                 = 10 * time.Second
	MAX_MESSAGE_SIZE              = 4 * 1024
	SEND_CHANNEL_SIZE             = 64
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Client is one websocket subscriber. Week, when set, limits delivery to updates of
// that ISO week.
type Client struct {
	ID         string
	Actor      string
	Week       string
	Connection *websocket.Conn
	Manager    *Manager
	send       chan Message
}

type Manager struct {
	hub *Hub
	log logger.Logger
}

// New starts the hub and forwards schedule events from the bus to connected clients.
func New(eventBus *events.EventBus) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		hub: newHub(),
		log: log,
	}
	go manager.hub.run(manager)

	if eventBus != nil {
		if err := eventBus.Subscribe(events.SCHEDULE_CHANNEL, manager.forwardScheduleEvent); err != nil {
			return nil, log.Function("New").Err("failed to subscribe to schedule events", err)
		}
	}

	log.Function("New").Info("Websocket hub started")
	return manager, nil
}

func (m *Manager) forwardScheduleEvent(event events.Event) error {
	m.Broadcast(Message{
		ID:        event.ID,
		Type:      MESSAGE_TYPE_SCHEDULE_UPDATED,
		Channel:   event.Channel.String(),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	})
	return nil
}

// HandleWebSocket serves one connection until it closes. The upgrade handler stores the
// caller's actor and optional week filter in the connection locals.
func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client := &Client{
		ID:         uuid.New().String(),
		Connection: c,
		Manager:    m,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}
	if actor, ok := c.Locals("actor").(string); ok {
		client.Actor = actor
	}
	if week, ok := c.Locals("week").(string); ok {
		client.Week = week
	}

	welcome := Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_WELCOME,
		Channel:   events.SCHEDULE_CHANNEL.String(),
		Data:      map[string]any{"clientId": client.ID, "week": client.Week},
		Timestamp: time.Now().UTC(),
	}
	if err := c.WriteJSON(welcome); err != nil {
		log.Er("failed to send welcome", err, "clientID", client.ID)
		_ = c.Close()
		return
	}

	select {
	case m.hub.register <- client:
	case <-m.hub.done:
		_ = c.Close()
		return
	}
	defer func() {
		select {
		case m.hub.unregister <- client:
		case <-m.hub.done:
		}
	}()

	go client.readPump()
	client.writePump()
}

// Broadcast queues message for every matching client. A full queue drops the message.
func (m *Manager) Broadcast(message Message) {
	log := m.log.Function("Broadcast")

	select {
	case m.hub.broadcast <- message:
	default:
		log.Warn("broadcast queue full, dropping message", "messageID", message.ID)
	}
}

func (m *Manager) ClientCount() int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	return len(m.hub.clients)
}

func (m *Manager) Close() {
	m.hub.stop()
}

func (c *Client) wants(message Message) bool {
	if c.Week == "" {
		return true
	}
	week, _ := message.Data["week"].(string)
	return week == c.Week
}

// readPump only services pings and control frames. Clients do not send commands.
func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer func() {
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	_ = c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Er("unexpected close", err, "clientID", c.ID)
			}
			return
		}

		if message.Type == MESSAGE_TYPE_PING {
			c.enqueue(Message{
				ID:        uuid.New().String(),
				Type:      MESSAGE_TYPE_PONG,
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

func (c *Client) enqueue(message Message) bool {
	defer func() { _ = recover() }()
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("write failed", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
