package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"adaptive-dice-backend/internal/models"
	"adaptive-dice-backend/internal/services"
)

const (
	MessageTableState  = "TABLE_STATE"
	MessageTableUpdate = "TABLE_UPDATE"
	MessageTableClosed = "TABLE_CLOSED"
	MessagePing        = "PING"
	MessagePong        = "PONG"

	writeWait      = 10 * time.Second
	clientSendSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams table updates to spectators.
type WebSocketHandler struct {
	tables *services.TableManager
	hub    *WebSocketHub
}

// WebSocketHub fans messages out to the clients watching each table. Only
// run touches the rooms.
type WebSocketHub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	TableID string
	conn    *websocket.Conn
	send    chan []byte
}

type Message struct {
	Type    string      `json:"type"`
	TableID string      `json:"table_id,omitempty"`
	Data    interface{} `json:"data"`

	to    *Client // nil for the whole room
	close bool    // drop the room after delivery
}

func NewWebSocketHandler(tables *services.TableManager) *WebSocketHandler {
	hub := &WebSocketHub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		tables: tables,
		hub:    hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	tableID := c.Param("id")
	if _, err := h.tables.State(tableID); err != nil {
		respondError(c, "Failed to watch table", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		TableID: tableID,
		conn:    conn,
		send:    make(chan []byte, clientSendSize),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	err = h.tables.Snapshot(tableID, func(state *models.TableState) {
		h.hub.broadcast <- &Message{
			Type:    MessageTableState,
			TableID: tableID,
			Data:    state,
			to:      client,
		}
	})
	if err != nil {
		// Closed between the check and the upgrade.
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == MessagePing {
			h.hub.broadcast <- &Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
				to:   client,
			}
		}
	}
}

// BroadcastTableUpdate sends a table's new state to its spectators.
func (h *WebSocketHandler) BroadcastTableUpdate(event *models.RollEvent, state *models.TableState) {
	h.hub.broadcast <- &Message{
		Type:    MessageTableUpdate,
		TableID: state.ID,
		Data: gin.H{
			"event": event,
			"table": state,
		},
	}
}

// BroadcastTableClosed tells a table's spectators it is gone and
// disconnects them.
func (h *WebSocketHandler) BroadcastTableClosed(tableID string) {
	h.hub.broadcast <- &Message{
		Type:    MessageTableClosed,
		TableID: tableID,
		Data: gin.H{
			"table_id":  tableID,
			"timestamp": time.Now().Unix(),
		},
		close: true,
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			room, ok := hub.rooms[client.TableID]
			if !ok {
				room = make(map[*Client]bool)
				hub.rooms[client.TableID] = room
			}
			room[client] = true
			log.Printf("Spectator joined table %s", client.TableID)

		case client := <-hub.unregister:
			if hub.remove(client) {
				log.Printf("Spectator left table %s", client.TableID)
			}

		case message := <-hub.broadcast:
			hub.deliver(message)
		}
	}
}

func (hub *WebSocketHub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", message.Type, err)
		return
	}

	if message.to != nil {
		if hub.rooms[message.to.TableID][message.to] {
			hub.send(message.to, data)
		}
		return
	}

	for client := range hub.rooms[message.TableID] {
		hub.send(client, data)
	}
	if message.close {
		for client := range hub.rooms[message.TableID] {
			hub.remove(client)
		}
	}
}

// send drops clients that cannot keep up.
func (hub *WebSocketHub) send(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Printf("Dropping slow spectator on table %s", client.TableID)
		hub.remove(client)
	}
}

func (hub *WebSocketHub) remove(client *Client) bool {
	room, ok := hub.rooms[client.TableID]
	if !ok || !room[client] {
		return false
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(hub.rooms, client.TableID)
	}
	return true
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "table closed"))
}
