package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/telemetry"
)

// MessageHandler manages message endpoints. Posting routes through the
// same service path as the websocket surface, so authorization and
// broadcast behavior match exactly.
type MessageHandler struct {
	chat  *chat.Service
	audit *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(chatService *chat.Service, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{chat: chatService, audit: audit}
}

// PostMessage persists and broadcasts a message.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	var req models.MessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", groupID)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.PostMessage(c.Request.Context(), groupID, c.GetInt("userID"), req)
	if err != nil {
		h.emitAudit(c, "ERROR", "message rejected", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Message sent", groupID)
	c.JSON(http.StatusCreated, msg)
}

// ListMessages returns the group's visible messages in delivery order.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SearchMessages searches message text within a group.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	msgs, err := h.chat.SearchMessages(c.Request.Context(), groupID, c.GetInt("userID"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// EditMessage updates a message's text when invoked by its sender.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.EditMessage(c.Request.Context(), groupID, c.GetInt("userID"), messageID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "edit rejected", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Message edited", groupID)
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage soft-deletes a message for everyone.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), groupID, c.GetInt("userID"), messageID); err != nil {
		h.emitAudit(c, "ERROR", "delete rejected", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Message deleted", groupID)
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string, groupID int) {
	if h.audit == nil {
		return
	}
	h.audit.EmitGroup(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c), groupID)
}
