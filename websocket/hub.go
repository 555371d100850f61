package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

type MessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *models.Message)

func init() {
	go RunHub()
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case message := <-Broadcast:
			var conversation models.Conversation
			if err := database.DB.First(&conversation, "id = ?", message.ConversationID).Error; err != nil {
				log.Printf("Error fetching conversation %s: %v", message.ConversationID, err)
				continue
			}

			// An exchange conversation has exactly two participants; the
			// sender already has the message.
			recipientID := conversation.RequesterID
			if message.SenderID == conversation.RequesterID {
				recipientID = conversation.ProviderID
			}

			clientsMu.RLock()
			conn, ok := clients[recipientID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(message); err != nil {
				log.Printf("Error sending message to client %s: %v", recipientID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, recipientID)
				clientsMu.Unlock()
			}
		}
	}
}
