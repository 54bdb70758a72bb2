package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/utils"
)

const (
	defaultMessagesLimit = 20
	maxMessagesLimit     = 100
)

// ChatController handles one-to-one conversations between neighbors.
type ChatController struct {
	db *gorm.DB
}

// NewChatController creates a new ChatController instance.
func NewChatController(db *gorm.DB) *ChatController {
	return &ChatController{db: db}
}

type conversationView struct {
	ID              uint          `json:"id"`
	Counterpart     models.Author `json:"counterpart"`
	LastMessage     *string       `json:"last_message"`
	LastMessageTime time.Time     `json:"last_message_time"`
	UnreadCount     int64         `json:"unread_count"`
}

// SendMessage appends a message to the conversation with receiver_id, creating it on first contact.
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req struct {
		ReceiverID  uint   `json:"receiver_id"`
		MessageText string `json:"message_text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "Invalid request payload")
		return
	}

	text := strings.TrimSpace(req.MessageText)
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40052, "Message cannot be empty")
		return
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		utils.Error(ctx, http.StatusBadRequest, 40053, "Message must be at most 2000 characters")
		return
	}
	if req.ReceiverID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40054, "Receiver is required")
		return
	}

	var receiver models.User
	if err := c.db.Select("id, neighborhood_id").First(&receiver, req.ReceiverID).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40451, "Receiver not found")
			return
		}
		serverError(ctx, 50051, "Failed to send message", err)
		return
	}

	sender := middleware.CurrentPrincipal(ctx)
	if sender.UserID == receiver.ID {
		utils.Error(ctx, http.StatusBadRequest, 40055, "You cannot message yourself")
		return
	}
	decision := policy.CanMessage(sender, policy.Principal{UserID: receiver.ID, NeighborhoodID: receiver.NeighborhoodID})
	if !authorize(ctx, decision, 40351) {
		return
	}

	message := models.Message{
		SenderID:    sender.UserID,
		ReceiverID:  receiver.ID,
		MessageText: text,
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		u1, u2 := models.OrderedPair(sender.UserID, receiver.ID)
		conv := models.Conversation{User1ID: u1, User2ID: u2, LastMessageTime: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conv).Error; err != nil {
			return err
		}
		// Serialize senders on the same pair
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user1_id = ? AND user2_id = ?", u1, u2).
			First(&conv).Error; err != nil {
			return err
		}

		message.ConversationID = conv.ID
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Update("last_message_time", message.CreatedAt).Error
	})
	if err != nil {
		serverError(ctx, 50051, "Failed to send message", err, "sender_id", sender.UserID, "receiver_id", receiver.ID)
		return
	}

	utils.Created(ctx, "Message sent successfully", message)
}

// ListConversations returns the caller's conversations, most recent first.
func (c *ChatController) ListConversations(ctx *gin.Context) {
	me := middleware.CurrentPrincipal(ctx).UserID

	var convs []models.Conversation
	if err := c.db.Where("user1_id = ? OR user2_id = ?", me, me).
		Order("last_message_time DESC, id DESC").
		Find(&convs).Error; err != nil {
		serverError(ctx, 50052, "Failed to list conversations", err)
		return
	}
	views := make([]conversationView, 0, len(convs))
	if len(convs) == 0 {
		utils.Success(ctx, views)
		return
	}

	ids := make([]uint, 0, len(convs))
	others := make([]uint, 0, len(convs))
	for _, cv := range convs {
		ids = append(ids, cv.ID)
		others = append(others, counterpartOf(cv, me))
	}

	authors, err := loadAuthors(c.db, others)
	if err != nil {
		serverError(ctx, 50052, "Failed to list conversations", err)
		return
	}

	var last []struct {
		ConversationID uint
		MessageText    string
	}
	if err := c.db.Raw(`SELECT DISTINCT ON (conversation_id) conversation_id, message_text
		FROM messages WHERE conversation_id IN ?
		ORDER BY conversation_id, created_at DESC, id DESC`, ids).Scan(&last).Error; err != nil {
		serverError(ctx, 50052, "Failed to list conversations", err)
		return
	}
	lastText := make(map[uint]string, len(last))
	for _, l := range last {
		lastText[l.ConversationID] = l.MessageText
	}

	var unread []struct {
		ConversationID uint
		Count          int64
	}
	if err := c.db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("receiver_id = ? AND read_at IS NULL AND conversation_id IN ?", me, ids).
		Group("conversation_id").
		Scan(&unread).Error; err != nil {
		serverError(ctx, 50052, "Failed to list conversations", err)
		return
	}
	unreadBy := make(map[uint]int64, len(unread))
	for _, u := range unread {
		unreadBy[u.ConversationID] = u.Count
	}

	for _, cv := range convs {
		v := conversationView{
			ID:              cv.ID,
			Counterpart:     authors[counterpartOf(cv, me)],
			LastMessageTime: cv.LastMessageTime,
			UnreadCount:     unreadBy[cv.ID],
		}
		if t, ok := lastText[cv.ID]; ok {
			v.LastMessage = &t
		}
		views = append(views, v)
	}
	utils.Success(ctx, views)
}

func counterpartOf(cv models.Conversation, me uint) uint {
	if cv.User1ID == me {
		return cv.User2ID
	}
	return cv.User1ID
}

// ListMessages pages backwards through a conversation and returns the page in chronological order.
func (c *ChatController) ListMessages(ctx *gin.Context) {
	id, ok := parseID(ctx, "conversationId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "Invalid conversation id")
		return
	}
	var conv models.Conversation
	if err := c.db.First(&conv, id).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40452, "Conversation not found")
			return
		}
		serverError(ctx, 50053, "Failed to load messages", err)
		return
	}
	if !authorize(ctx, policy.IsParticipant(middleware.CurrentPrincipal(ctx), conv.User1ID, conv.User2ID), 40352) {
		return
	}

	limit, offset := utils.Paging(ctx.Query("limit"), ctx.Query("offset"), defaultMessagesLimit, maxMessagesLimit)
	messages := []models.Message{}
	if err := c.db.Where("conversation_id = ?", conv.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		serverError(ctx, 50053, "Failed to load messages", err)
		return
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	utils.Success(ctx, messages)
}

var errNotReceiver = errors.New("not the receiver")

// MarkAsRead stamps read_at on a message addressed to the caller. Repeating it is a no-op.
func (c *ChatController) MarkAsRead(ctx *gin.Context) {
	id, ok := parseID(ctx, "messageId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40056, "Invalid message id")
		return
	}
	me := middleware.CurrentPrincipal(ctx).UserID

	var message models.Message
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, id).Error; err != nil {
			return err
		}
		if message.ReceiverID != me {
			return errNotReceiver
		}
		if message.ReadAt != nil {
			return nil
		}
		now := time.Now().UTC()
		if err := tx.Model(&models.Message{}).
			Where("id = ? AND read_at IS NULL", message.ID).
			Update("read_at", now).Error; err != nil {
			return err
		}
		return tx.First(&message, id).Error
	})
	switch {
	case err == nil:
		utils.Respond(ctx, http.StatusOK, 0, "Message marked as read", message)
	case isNotFound(err):
		utils.Error(ctx, http.StatusNotFound, 40453, "Message not found")
	case errors.Is(err, errNotReceiver):
		utils.Error(ctx, http.StatusForbidden, 40353, "Only the receiver can mark a message as read")
	default:
		serverError(ctx, 50054, "Failed to update message", err)
	}
}
