package handlers

import (
	"fmt"
	"log"
	"strconv"
	"time"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/skillswap/skill_exchange/configs"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
	"github.com/skillswap/skill_exchange/websocket"
)

type MessagingHandler struct {
	Mailer *notifications.EmailService
	Cache  *cache.ResponseCache
}

func NewMessagingHandler(mailer *notifications.EmailService, cache *cache.ResponseCache) *MessagingHandler {
	return &MessagingHandler{Mailer: mailer, Cache: cache}
}

func (h *MessagingHandler) GetConversations(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var conversations []models.Conversation
	if err := database.DB.
		Where("requester_id = ? OR provider_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Find(&conversations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}
	return c.JSON(fiber.Map{"success": true, "conversations": conversations})
}

func (h *MessagingHandler) GetConversationMessages(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var conversation models.Conversation
	if err := database.DB.First(&conversation, "id = ?", c.Params("conversationId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Conversation not found"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this conversation"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var messages []models.Message
	if err := database.DB.
		Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to fetch messages"})
	}

	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// SendExchangeMessage appends a message to the exchange's conversation and
// pushes it to the other participant over the websocket hub.
func (h *MessagingHandler) SendExchangeMessage(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var conversation models.Conversation
	if err := database.DB.First(&conversation, "exchange_id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Conversation not found"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to message in this exchange"})
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       userID,
		Content:        req.Content,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to send message"})
	}

	now := time.Now()
	preview := req.Content
	if len(preview) > 255 {
		preview = preview[:255]
	}
	database.DB.Model(&conversation).Updates(map[string]interface{}{
		"last_message_text":      preview,
		"last_message_sender_id": userID,
		"last_message_at":        now,
	})

	websocket.Broadcast <- &message

	recipientID := conversation.RequesterID
	if userID == conversation.RequesterID {
		recipientID = conversation.ProviderID
	}
	var recipient models.User
	if err := database.DB.First(&recipient, "id = ?", recipientID).Error; err == nil &&
		recipient.EmailNotifications.NewMessages {
		var sender models.User
		database.DB.First(&sender, "id = ?", userID)
		go h.Mailer.Send(recipient.Name, recipient.Email, "New Message on SkillSwap",
			fmt.Sprintf("<h1>New Message</h1><p><strong>%s</strong> sent you a message about your exchange.</p>", sender.Name))
	}

	h.Cache.Invalidate("/api/conversations")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "new_message": message})
}

func (h *MessagingHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var conversation models.Conversation
	if err := database.DB.First(&conversation, "id = ?", c.Params("conversationId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Conversation not found"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this conversation"})
	}

	now := time.Now()
	if err := database.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversation.ID, userID).
		Update("read_at", now).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to mark messages read"})
	}

	h.Cache.Invalidate("/api/conversations")
	return c.JSON(fiber.Map{"success": true, "message": "Conversation marked as read"})
}

// ServeWs upgrades the connection, authenticates the first frame, and
// relays chat payloads through the hub.
func ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"success": false, "message": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"success": false, "message": "Invalid token"})
		c.Close()
		return
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"success": false, "message": "Invalid user ID"})
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	for {
		var msg websocket.MessagePayload
		if err := c.ReadJSON(&msg); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			break
		}

		convID, err := uuid.Parse(msg.ConversationID)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"success": false, "message": "Invalid conversation ID"})
			continue
		}

		var conversation models.Conversation
		if err := database.DB.First(&conversation, "id = ?", convID).Error; err != nil {
			_ = c.WriteJSON(fiber.Map{"success": false, "message": "Conversation not found"})
			continue
		}
		if !conversation.HasParticipant(userID) {
			_ = c.WriteJSON(fiber.Map{"success": false, "message": "Not authorized"})
			continue
		}

		dbMessage := models.Message{
			ConversationID: convID,
			SenderID:       userID,
			Content:        msg.Content,
		}
		if err := database.DB.Create(&dbMessage).Error; err != nil {
			log.Printf("Failed to persist websocket message from %s: %v", userID, err)
			continue
		}

		now := time.Now()
		preview := msg.Content
		if len(preview) > 255 {
			preview = preview[:255]
		}
		database.DB.Model(&conversation).Updates(map[string]interface{}{
			"last_message_text":      preview,
			"last_message_sender_id": userID,
			"last_message_at":        now,
		})

		websocket.Broadcast <- &dbMessage
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}
