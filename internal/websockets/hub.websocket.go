package websockets

import (
	"sync"
)

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	once       sync.Once
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, SEND_CHANNEL_SIZE),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			m.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message, m)

		case <-h.done:
			h.mutex.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) stop() {
	h.once.Do(func() { close(h.done) })
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	m.hub.clients[client.ID] = client
	m.hub.mutex.Unlock()

	m.log.Function("registerClient").Info(
		"Client registered",
		"clientID", client.ID,
		"actor", client.Actor,
		"week", client.Week,
	)
}

func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if _, ok := m.hub.clients[client.ID]; !ok {
		return
	}
	delete(m.hub.clients, client.ID)
	close(client.send)

	m.log.Function("unregisterClient").Info("Client unregistered", "clientID", client.ID)
}

// broadcastMessage delivers without blocking. Clients whose queue is full are dropped.
func (h *Hub) broadcastMessage(message Message, m *Manager) {
	log := m.log.Function("broadcastMessage")

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for id, client := range h.clients {
		if !client.wants(message) {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			log.Warn("client too slow, disconnecting", "clientID", id)
			delete(h.clients, id)
			close(client.send)
		}
	}

	log.Debug("Broadcast complete", "messageID", message.ID, "sentTo", sent)
}
